package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 10
	algorithmID           = "argon2id"
)

// ErrPolicy reports a password below the minimum length. Length is counted
// in raw bytes exactly as provided; no Unicode normalization.
var ErrPolicy = errors.New("password must be at least 10 bytes")

// Params holds the argon2id cost parameters.
type Params struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher hashes and verifies passwords. Immutable after construction and
// safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher validates the cost parameters against hard floors and returns
// a ready hasher.
func NewHasher(p Params) (*Hasher, error) {
	switch {
	case p.Memory < minMemoryKB:
		return nil, fmt.Errorf("argon2 memory below %d KB", minMemoryKB)
	case p.Time < minTimeCost:
		return nil, errors.New("argon2 time cost below 1")
	case p.Parallelism < minParallelism:
		return nil, errors.New("argon2 parallelism below 1")
	case p.SaltLength < minSaltLength:
		return nil, fmt.Errorf("argon2 salt below %d bytes", minSaltLength)
	case p.KeyLength < minKeyLength:
		return nil, fmt.Errorf("argon2 key below %d bytes", minKeyLength)
	}
	return &Hasher{params: p}, nil
}

// Hash derives an argon2id hash and returns it PHC-encoded:
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPassBytes {
		return "", ErrPolicy
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password), salt,
		h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the parameters embedded in encodedHash and
// compares in constant time. A structurally invalid encoding is an error;
// a wrong password is (false, nil).
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	memory, timeCost, parallelism, salt, want, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey(
		[]byte(password), salt,
		timeCost, memory, parallelism, uint32(len(want)),
	)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func decodePHC(encoded string) (memory, timeCost uint32, parallelism uint8, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return 0, 0, 0, nil, nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return 0, 0, 0, nil, nil, errors.New("unsupported algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}

	var p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &p); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid parameter format")
	}
	if p == 0 || p > 255 {
		return 0, 0, 0, nil, nil, errors.New("invalid parallelism")
	}
	parallelism = uint8(p)

	salt, err = base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return 0, 0, 0, nil, nil, errors.New("invalid salt")
	}

	hash, err = base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) < int(minKeyLength) {
		return 0, 0, 0, nil, nil, errors.New("invalid hash")
	}

	return memory, timeCost, parallelism, salt, hash, nil
}
