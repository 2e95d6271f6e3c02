// Package credential holds the single shared password hash and
// verifies candidates against it.
//
// The hash is argon2id in PHC string format, e.g.
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
//
// Verification delegates entirely to argon2 plus a constant-time
// comparison; there is no short-circuiting on partial mismatch.  The
// plaintext candidate is never logged or persisted.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Canonical cost parameters: 3 iterations over 64 MiB with 4 lanes.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltSize      = 16
)

// HashPassword generates an argon2id hash of password using the
// canonical parameters.  The returned string is a full PHC-format hash
// ready to persist in the server settings.
func HashPassword(password []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey(password, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads, encodedSalt, encodedHash), nil
}

// Store verifies candidate passwords against one stored hash.  It is
// immutable after construction and needs no locking.
type Store struct {
	salt    []byte
	hash    []byte
	time    uint32
	memory  uint32
	threads uint8
}

// NewStore parses a PHC-format argon2id hash string.
func NewStore(phc string) (*Store, error) {
	parts := strings.Split(phc, "$")
	// Leading "$" yields an empty first element.
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, fmt.Errorf("malformed password hash")
	}
	if parts[2] != "v=19" {
		return nil, fmt.Errorf("unsupported argon2 version %q", parts[2])
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, fmt.Errorf("malformed argon2 parameters %q: %w", parts[3], err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("malformed salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, fmt.Errorf("malformed hash: %w", err)
	}

	return &Store{
		salt:    salt,
		hash:    hash,
		time:    iterations,
		memory:  memory,
		threads: threads,
	}, nil
}

// Verify reports whether candidate matches the stored password.
func (s *Store) Verify(candidate []byte) (bool, error) {
	if len(s.hash) == 0 {
		return false, fmt.Errorf("empty stored hash")
	}
	derived := argon2.IDKey(candidate, s.salt, s.time, s.memory, s.threads, uint32(len(s.hash)))
	return subtle.ConstantTimeCompare(derived, s.hash) == 1, nil
}
