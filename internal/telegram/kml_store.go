package telegram

import (
	"github.com/telebox/telebox/internal/kml"
	"github.com/telebox/telebox/internal/userdir"
)

// kmlPersister adapts the file-backed KML store to the session store's
// persister contract by resolving the user's directory first.
type kmlPersister struct {
	resolver *userdir.Resolver
	files    *kml.Store
}

func (p *kmlPersister) Load(userID int64) (*kml.Data, error) {
	root, err := p.resolver.EnsureUserRoot(userID)
	if err != nil {
		return nil, err
	}
	return p.files.Load(root)
}

func (p *kmlPersister) Save(userID int64, data *kml.Data) error {
	root, err := p.resolver.EnsureUserRoot(userID)
	if err != nil {
		return err
	}
	return p.files.Save(root, data)
}
