package session

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/CodedMasonry/remote-print/internal/errors"
)

// fakeVerifier accepts exactly one password without argon2 cost.
type fakeVerifier struct {
	password []byte
}

func (v *fakeVerifier) Verify(candidate []byte) (bool, error) {
	return bytes.Equal(candidate, v.password), nil
}

func newTestRegistry(ttl time.Duration) *Registry {
	return NewRegistry(&fakeVerifier{password: []byte("hunter2")}, ttl)
}

func TestAuthenticate_Success(t *testing.T) {
	r := newTestRegistry(4 * time.Hour)
	before := time.Now()

	s, err := r.Authenticate([]byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}
	if s.ID == uuid.Nil {
		t.Error("nil session id issued")
	}

	// expires_at = now + TTL within clock-read tolerance.
	want := before.Add(4 * time.Hour)
	if s.ExpiresAt.Before(want) || s.ExpiresAt.After(want.Add(time.Second)) {
		t.Errorf("ExpiresAt = %v, want ~%v", s.ExpiresAt, want)
	}
	if r.Len() != 1 {
		t.Errorf("registry size = %d, want 1", r.Len())
	}
}

func TestAuthenticate_InvalidPassword(t *testing.T) {
	r := newTestRegistry(4 * time.Hour)

	_, err := r.Authenticate([]byte("wrong-password"))
	if !errors.Is(err, errors.ErrInvalidCredential) {
		t.Fatalf("error = %v, want ErrInvalidCredential", err)
	}
	if r.Len() != 0 {
		t.Errorf("failed auth inserted a session; size = %d", r.Len())
	}
}

func TestValidate_Unknown(t *testing.T) {
	r := newTestRegistry(time.Hour)
	if got := r.Validate(uuid.New()); got != StatusUnknown {
		t.Errorf("Validate(random) = %v, want unknown", got)
	}
}

func TestValidate_Lifecycle(t *testing.T) {
	r := newTestRegistry(time.Hour)

	current := time.Unix(1_700_000_000, 0)
	r.now = func() time.Time { return current }

	s, err := r.Authenticate([]byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}

	// Any check before expiry is valid.
	current = current.Add(59 * time.Minute)
	if got := r.Validate(s.ID); got != StatusValid {
		t.Errorf("before expiry: %v, want valid", got)
	}

	// now == expires_at counts as expired.
	current = s.ExpiresAt
	if got := r.Validate(s.ID); got != StatusExpired {
		t.Errorf("at expiry: %v, want expired", got)
	}

	// The expired entry was evicted, so a second lookup is unknown.
	if got := r.Validate(s.ID); got != StatusUnknown {
		t.Errorf("after eviction: %v, want unknown", got)
	}
	if r.Len() != 0 {
		t.Errorf("registry size = %d after eviction", r.Len())
	}
}

func TestAuthenticate_ConcurrentDistinctIDs(t *testing.T) {
	const clients = 64
	r := newTestRegistry(time.Hour)

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Authenticate([]byte("hunter2"))
			if err != nil {
				t.Errorf("authenticate: %v", err)
				return
			}
			ids <- s.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uuid.UUID]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}
	if len(seen) != clients {
		t.Errorf("issued %d distinct ids, want %d", len(seen), clients)
	}
	if r.Len() != clients {
		t.Errorf("registry size = %d, want %d (lost updates)", r.Len(), clients)
	}
}

func TestSweep(t *testing.T) {
	r := newTestRegistry(time.Hour)

	current := time.Unix(1_700_000_000, 0)
	r.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		if _, err := r.Authenticate([]byte("hunter2")); err != nil {
			t.Fatal(err)
		}
	}

	current = current.Add(30 * time.Minute)
	fresh, err := r.Authenticate([]byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}

	// First three are past TTL, the fresh one is not.
	current = current.Add(45 * time.Minute)
	if evicted := r.Sweep(); evicted != 3 {
		t.Errorf("Sweep evicted %d, want 3", evicted)
	}
	if r.Len() != 1 {
		t.Errorf("registry size = %d, want 1", r.Len())
	}
	if got := r.Validate(fresh.ID); got != StatusValid {
		t.Errorf("fresh session %v after sweep, want valid", got)
	}
}

func TestStatus_String(t *testing.T) {
	if StatusValid.String() != "valid" || StatusExpired.String() != "expired" || StatusUnknown.String() != "unknown" {
		t.Error("unexpected Status string values")
	}
}
