// Package session issues and validates the time-limited tokens that
// authorize print requests.
//
// Sessions are deliberately volatile: the registry is a plain in-memory
// table and everything is lost on restart.  There is one flat session
// namespace because there is one shared password.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CodedMasonry/remote-print/internal/errors"
)

// Session is a server-issued authorization token.  Never mutated after
// creation; the id is generated server-side and never derived from
// client input.
type Session struct {
	ID        uuid.UUID
	ExpiresAt time.Time
}

// Status is the result of a session lookup.
type Status int

const (
	StatusUnknown Status = iota
	StatusExpired
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Verifier checks a candidate password.  Implemented by
// credential.Store.
type Verifier interface {
	Verify(candidate []byte) (bool, error)
}

// Registry is the in-memory session table.  It is the only mutable
// state shared across connections, so every access goes through one
// mutex: a session inserted by one stream is immediately visible to a
// concurrent validator.
type Registry struct {
	verifier Verifier
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]Session

	now func() time.Time // overridable in tests
}

// NewRegistry creates an empty registry issuing sessions with the
// given TTL.
func NewRegistry(verifier Verifier, ttl time.Duration) *Registry {
	return &Registry{
		verifier: verifier,
		ttl:      ttl,
		sessions: make(map[uuid.UUID]Session),
		now:      time.Now,
	}
}

// Authenticate verifies the candidate password and, on success, issues
// a fresh session.  A failed verification returns
// errors.ErrInvalidCredential and never inserts anything.
func (r *Registry) Authenticate(password []byte) (Session, error) {
	ok, err := r.verifier.Verify(password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, errors.ErrInvalidCredential
	}

	s := Session{
		ID:        uuid.New(),
		ExpiresAt: r.now().Add(r.ttl),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s, nil
}

// Validate looks up id and classifies it.  Expired entries are evicted
// on the spot so the table stays bounded by live sessions.
func (r *Registry) Validate(id uuid.UUID) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return StatusUnknown
	}
	if !r.now().Before(s.ExpiresAt) {
		delete(r.sessions, id)
		return StatusExpired
	}
	return StatusValid
}

// Sweep removes every expired entry and returns how many were evicted.
// The server runs this periodically so failed or abandoned sessions
// cannot accumulate over a long process lifetime.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	evicted := 0
	for id, s := range r.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of stored sessions, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
