package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thebowwman/navplot/internals/route"
)

var ErrNotFound = errors.New("session not found")

// Session is one user's route editing session. Nothing outlives the
// process.
type Session struct {
	ID        string       `json:"id"`
	Route     *route.Route `json:"-"`
	CreatedAt time.Time    `json:"created_at"`

	mu sync.Mutex
}

// Apply runs fn against the route and, if it succeeds, hands the resulting
// snapshot to publish. Both run under the session lock, so snapshots are
// published in the order their mutations happened.
func (s *Session) Apply(fn func(*route.Route) error, publish func(route.Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.Route); err != nil {
		return err
	}
	publish(s.Route.Snapshot())
	return nil
}

type SessionStore struct {
	mu sync.RWMutex
	m  map[string]*Session
}

func NewSessionStore() *SessionStore { return &SessionStore{m: make(map[string]*Session)} }

// Create starts a new session with an empty route.
func (s *SessionStore) Create(speedKnots float64) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		Route:     route.New(speedKnots),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.ID] = sess
	return sess
}

func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.m[id]
	return sess, ok
}

func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
