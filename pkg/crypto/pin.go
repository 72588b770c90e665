package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultArgon2Memory      uint32 = 64 * 1024 // KiB
	DefaultArgon2Iterations  uint32 = 3
	DefaultArgon2Parallelism uint8  = 2
	DefaultArgon2SaltLength  uint32 = 16
	DefaultArgon2KeyLength   uint32 = 32

	// Ceilings for parameters read back from stored hashes.
	MaxArgon2Memory     uint32 = 1024 * 1024 // KiB
	MaxArgon2Iterations uint32 = 10
)

var (
	ErrEmptyPin             = errors.New("pin cannot be empty")
	ErrInvalidHashFormat    = errors.New("invalid hash format")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)

type PinHasher interface {
	Hash(pin string) (string, error)
	Verify(pin, encoded string) bool
}

var _ PinHasher = (*Argon2)(nil)

// Argon2 hashes PINs with argon2id and verifies both argon2id and legacy bcrypt hashes.
type Argon2 struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32 // ignored during Verify()
	KeyLength   uint32
}

// NewArgon2 returns a hasher with the default work factor.
//
// @ref https://cheatsheetseries.owasp.org/cheatsheets/Password_Storage_Cheat_Sheet.html
func NewArgon2() *Argon2 {
	return &Argon2{
		Memory:      DefaultArgon2Memory,
		Iterations:  DefaultArgon2Iterations,
		Parallelism: DefaultArgon2Parallelism,
		SaltLength:  DefaultArgon2SaltLength,
		KeyLength:   DefaultArgon2KeyLength,
	}
}

func (a *Argon2) Hash(pin string) (string, error) {
	if pin == "" {
		return "", ErrEmptyPin
	}

	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(pin), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify reports whether pin matches encoded. Unparseable input is a mismatch.
func (a *Argon2) Verify(pin, encoded string) bool {
	if pin == "" || encoded == "" {
		return false
	}

	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(pin)) == nil
	}

	params, salt, key, err := decodeArgon2Hash(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(pin), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(key, computed) == 1
}

// NeedsRehash reports whether encoded was produced by something other than argon2id.
func NeedsRehash(encoded string) bool {
	return isBcrypt(encoded)
}

func isBcrypt(encoded string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, prefix) {
			return true
		}
	}
	return false
}

func decodeArgon2Hash(encoded string) (*Argon2, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, nil, ErrInvalidHashFormat
	}

	if parts[1] != "argon2id" {
		return nil, nil, nil, ErrUnsupportedAlgorithm
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	params := &Argon2{}
	var p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &p); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.Memory == 0 || params.Iterations == 0 || p <= 0 || p > 255 {
		return nil, nil, nil, ErrInvalidHashFormat
	}
	if params.Memory > MaxArgon2Memory || params.Iterations > MaxArgon2Iterations {
		return nil, nil, nil, ErrInvalidHashFormat
	}
	params.Parallelism = uint8(p)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid salt encoding: %w", err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid hash encoding: %w", err)
	}
	if len(key) == 0 {
		return nil, nil, nil, ErrInvalidHashFormat
	}

	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
