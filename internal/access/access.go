package access

import (
	"github.com/telebox/telebox/internal/config"
	"github.com/telebox/telebox/internal/consts"
)

// Lists holds the static allow-lists parsed at startup. Membership never
// changes at runtime.
type Lists struct {
	registered   map[int64]struct{}
	capabilities map[string]map[int64]struct{}
}

func NewLists(cfg *config.Config) *Lists {
	return &Lists{
		registered: toSet(cfg.RegisteredUsers),
		capabilities: map[string]map[int64]struct{}{
			consts.CapLocation: toSet(cfg.LocationUsers),
			consts.CapArchive:  toSet(cfg.ArchiveUsers),
			consts.CapWorkbook: toSet(cfg.WorkbookUsers),
			consts.CapOcr:      toSet(cfg.OcrUsers),
			consts.CapKml:      toSet(cfg.KmlUsers),
			consts.CapGeotags:  toSet(cfg.GeotagsUsers),
		},
	}
}

// IsRegistered reports whether the user may talk to the bot at all.
func (l *Lists) IsRegistered(userID int64) bool {
	_, ok := l.registered[userID]
	return ok
}

// Has reports whether the user is on the allow-list for a capability.
// Unknown capability names are simply not granted.
func (l *Lists) Has(userID int64, capability string) bool {
	set, ok := l.capabilities[capability]
	if !ok {
		return false
	}
	_, ok = set[userID]
	return ok
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
