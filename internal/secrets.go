package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"
)

const secretTokenBytes = 32

// NewSecretToken returns a high-entropy single-use token as compact
// base64url, together with the SHA-256 digest that gets persisted. The raw
// value leaves the process exactly once, inside the outbound message.
func NewSecretToken() (string, [32]byte, error) {
	var raw [secretTokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", [32]byte{}, err
	}

	token := base64.RawURLEncoding.EncodeToString(raw[:])
	return token, sha256.Sum256([]byte(token)), nil
}

// NewOTP returns a numeric one-time code of the given length. Each digit is
// drawn independently from crypto/rand so the code has no modulo bias.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// HashSecret digests a presented secret for comparison against the stored
// hash.
func HashSecret(value string) [32]byte {
	return sha256.Sum256([]byte(value))
}
