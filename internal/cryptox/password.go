package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm selects the one-way transform used for new password hashes.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Argon2Params are the argon2id cost parameters. Memory is in KiB.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params match the parameters the vault has always used for
// key derivation.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Upper bounds applied to parameters read back from a stored hash, so a
// corrupted record cannot make verification allocate unbounded memory.
const (
	maxArgon2Memory     = 1 << 20
	maxArgon2Iterations = 64
	maxArgon2KeyLength  = 1024

	// bcrypt silently ignores input past this length; longer passwords are
	// pre-hashed.
	bcryptMaxInput = 72

	// MaxBcryptCost bounds both new hashes and the cost accepted on verify.
	MaxBcryptCost = 16
)

const argon2idPrefix = "$argon2id$"

var ErrUnknownAlgorithm = errors.New("unknown password hash algorithm")

// PasswordHasher produces and checks salted one-way password hashes.
// New hashes use the configured algorithm; Verify accepts hashes produced by
// any supported algorithm.
type PasswordHasher struct {
	alg        Algorithm
	argon      Argon2Params
	bcryptCost int
}

// NewPasswordHasher validates the parameters and returns a hasher.
func NewPasswordHasher(alg Algorithm, argon Argon2Params, bcryptCost int) (*PasswordHasher, error) {
	switch alg {
	case AlgorithmArgon2id:
		if err := argon.validate(); err != nil {
			return nil, err
		}
	case AlgorithmBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > MaxBcryptCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, MaxBcryptCost)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
	}
	return &PasswordHasher{alg: alg, argon: argon, bcryptCost: bcryptCost}, nil
}

// Algorithm reports the algorithm used for new hashes.
func (h *PasswordHasher) Algorithm() Algorithm { return h.alg }

// Hash returns the encoded hash of password. Empty and very long passwords
// are valid input.
func (h *PasswordHasher) Hash(password string) (string, error) {
	switch h.alg {
	case AlgorithmBcrypt:
		b, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(b), nil
	default:
		salt := make([]byte, h.argon.SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		return encodeArgon2id(password, salt, h.argon), nil
	}
}

// Verify reports whether password matches encoded. Malformed or unknown
// hashes yield false.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, argon2idPrefix):
		return verifyArgon2id(password, encoded)
	case isBcryptHash(encoded):
		cost, err := bcrypt.Cost([]byte(encoded))
		if err != nil || cost > MaxBcryptCost {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(encoded), bcryptInput(password)) == nil
	default:
		return false
	}
}

func (p Argon2Params) validate() error {
	switch {
	case p.Iterations < 1 || p.Iterations > maxArgon2Iterations:
		return fmt.Errorf("argon2 iterations %d out of range", p.Iterations)
	case p.Parallelism < 1:
		return errors.New("argon2 parallelism must be at least 1")
	case p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxArgon2Memory:
		return fmt.Errorf("argon2 memory %d KiB out of range", p.Memory)
	case p.SaltLength < 8:
		return fmt.Errorf("argon2 salt length %d too short", p.SaltLength)
	case p.KeyLength < 16 || p.KeyLength > maxArgon2KeyLength:
		return fmt.Errorf("argon2 key length %d out of range", p.KeyLength)
	}
	return nil
}

func deriveArgon2id(password, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

// encodeArgon2id renders the PHC string
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>.
func encodeArgon2id(password string, salt []byte, p Argon2Params) string {
	key := deriveArgon2id([]byte(password), salt, p)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func verifyArgon2id(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	if p.SaltLength < 8 || p.validate() != nil {
		return false
	}

	candidate := deriveArgon2id([]byte(password), salt, p)
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func isBcryptHash(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

// bcryptInput maps passwords longer than bcrypt accepts to a fixed-length
// digest so they are hashed instead of rejected.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
