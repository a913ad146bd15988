package session

import (
	"errors"
	"sync"
	"time"

	"github.com/telebox/telebox/internal/kml"
)

// ErrWrongMode reports that the session left the expected mode between
// dispatch and the locked section. Messages are dispatched by the mode
// seen at routing time, but a concurrent message from the same user can
// switch the mode before the handler takes the lock; that race is a
// normal user action, so callers drop the message instead of failing.
var ErrWrongMode = errors.New("session mode changed")

// KmlPersister mirrors a user's KML payload to durable storage. The store
// calls Load on first touch and Save after every mutation.
type KmlPersister interface {
	Load(userID int64) (*kml.Data, error)
	Save(userID int64, data *kml.Data) error
}

// Store owns every user session and every per-chat geotag record. All
// access goes through With/WithKml/WithGeotags, which hold a per-key lock
// for the duration of the callback; handlers for the same user therefore
// serialize their session mutations even when dispatched concurrently.
type Store struct {
	mu    sync.Mutex
	users map[int64]*userEntry

	chatMu sync.Mutex
	chats  map[int64]*chatEntry

	kml KmlPersister
}

type userEntry struct {
	mu sync.Mutex
	s  Session
}

type chatEntry struct {
	mu sync.Mutex
	g  GeotagState
}

func NewStore(kml KmlPersister) *Store {
	return &Store{
		users: make(map[int64]*userEntry),
		chats: make(map[int64]*chatEntry),
		kml:   kml,
	}
}

// Mode returns the user's current mode, ModeNone for unseen users.
func (st *Store) Mode(userID int64) Mode {
	e := st.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.s.Mode == "" {
		return ModeNone
	}
	return e.s.Mode
}

// With runs fn with the user's session under that user's lock. Sessions are
// created lazily with mode none.
func (st *Store) With(userID int64, fn func(*Session) error) error {
	e := st.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.s.Mode == "" {
		e.s.Mode = ModeNone
	}
	return fn(&e.s)
}

// EnterMode transitions the user into a mode, applying the mode's payload
// reset rules.
func (st *Store) EnterMode(userID int64, m Mode, now time.Time) error {
	return st.With(userID, func(s *Session) error {
		s.EnterMode(m, now)
		return nil
	})
}

// WithMode runs fn only while the session is still in the wanted mode,
// reporting whether it ran. Handlers use it whenever a payload accessor
// would otherwise race a concurrent mode switch.
func (st *Store) WithMode(userID int64, want Mode, fn func(*Session) error) (bool, error) {
	var ran bool
	err := st.With(userID, func(s *Session) error {
		if s.Mode != want {
			return nil
		}
		ran = true
		return fn(s)
	})
	return ran, err
}

// WithKml runs fn with the user's KML state under the user's lock. The
// persisted payload is loaded on first touch (corrupt files are quarantined
// by the persister) and re-saved after fn returns without error. Returns
// ErrWrongMode when the session left KML mode before the lock was taken.
func (st *Store) WithKml(userID int64, fn func(*KmlState) error) error {
	e := st.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Mode != ModeKml {
		return ErrWrongMode
	}
	if e.s.kmlState == nil || e.s.kmlState.Data == nil {
		data, err := st.kml.Load(userID)
		if err != nil {
			return err
		}
		if e.s.kmlState == nil {
			e.s.kmlState = &KmlState{}
		}
		e.s.kmlState.Data = data
	}

	if err := fn(e.s.kmlState); err != nil {
		return err
	}
	return st.kml.Save(userID, e.s.kmlState.Data)
}

// WithGeotags runs fn with the chat's geotag state under the chat's lock.
// Geotag pairing is keyed by chat, not user.
func (st *Store) WithGeotags(chatID int64, fn func(*GeotagState) error) error {
	st.chatMu.Lock()
	e, ok := st.chats[chatID]
	if !ok {
		e = &chatEntry{}
		st.chats[chatID] = e
	}
	st.chatMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.g)
}

func (st *Store) entry(userID int64) *userEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.users[userID]
	if !ok {
		e = &userEntry{}
		st.users[userID] = e
	}
	return e
}
