package session

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/saferstep/internal/model"
)

const defaultSessionTTL = 30 * time.Minute

// Manager keeps live sessions in memory and expires idle ones.
type Manager struct {
	opts     Options
	sessions *gocache.Cache
}

// NewManager creates a session registry. Every session it creates shares
// opts; ttl is the idle time after which a session is discarded.
func NewManager(opts Options, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	sessions := gocache.New(ttl, ttl/2)
	sessions.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
	})

	return &Manager{opts: opts, sessions: sessions}
}

// Create starts a session. loc, when non-nil, is a location sample supplied
// by the host and replaces background geolocation.
func (m *Manager) Create(loc *model.Location) (*Session, error) {
	opts := m.opts
	if loc != nil {
		if !loc.Valid() {
			return nil, fmt.Errorf("invalid location %s", loc)
		}
		opts.Location = loc
	}

	s, err := New(opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.sessions.SetDefault(s.ID, s)
	return s, nil
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	v, found := m.sessions.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}

	s, ok := v.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}

	m.sessions.SetDefault(id, s)
	return s, nil
}

// Delete discards a session and its transcript.
func (m *Manager) Delete(id string) error {
	if _, found := m.sessions.Get(id); !found {
		return fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	m.sessions.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}
