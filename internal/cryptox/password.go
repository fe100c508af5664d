// Package cryptox implements password hashing with argon2id.
//
// Hashes are stored in the PHC string format understood by other argon2
// implementations:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>
//
// where salt and key are unpadded standard base64.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"golang.org/x/crypto/argon2"
)

// Result is the outcome of a password verification.
type Result int

const (
	// VerificationError means the check could not be performed, e.g. the
	// stored hash is malformed. It is never a statement about the password.
	VerificationError Result = iota
	Match
	Mismatch
)

func (r Result) String() string {
	switch r {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	}
	return "verification_error"
}

// Params are the argon2id cost parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams: 64 MiB, 3 passes, single lane.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

var errMalformedHash = errors.New("malformed argon2id hash")

// Upper bounds on cost parameters read back from a stored hash.
const (
	maxMemory      = 1 << 20 // KiB, 1 GiB
	maxIterations  = 16
	maxParallelism = 16
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher struct {
	params Params
	rand   func([]byte) (int, error)
}

func NewPasswordHasher(p Params) *PasswordHasher {
	return &PasswordHasher{params: p, rand: rand.Read}
}

// Hash returns the PHC-encoded argon2id hash of plaintext using a fresh salt.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := h.rand(salt); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrHashingFailure, err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash of candidate with the parameters and salt
// embedded in stored and compares the keys in constant time.
// The error is non-nil only together with VerificationError.
func (h *PasswordHasher) Verify(stored, candidate string) (Result, error) {
	p, salt, key, err := decodeHash(stored)
	if err != nil {
		return VerificationError, err
	}

	other := argon2.IDKey([]byte(candidate), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	if subtle.ConstantTimeCompare(key, other) == 1 {
		return Match, nil
	}
	return Mismatch, nil
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	var p Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errMalformedHash
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("unsupported variant %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", errMalformedHash, err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", errMalformedHash, err)
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, fmt.Errorf("%w: zero cost parameter", errMalformedHash)
	}
	if p.Memory > maxMemory || p.Iterations > maxIterations || p.Parallelism > maxParallelism {
		return p, nil, nil, fmt.Errorf("%w: cost parameters m=%d,t=%d,p=%d out of range",
			errMalformedHash, p.Memory, p.Iterations, p.Parallelism)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", errMalformedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %v", errMalformedHash, err)
	}
	if len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: empty key", errMalformedHash)
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
