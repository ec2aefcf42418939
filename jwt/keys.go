package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Keys holds the process-wide RSA key pair. It is loaded once at startup and
// immutable thereafter; every Codec call reads it without locking.
type Keys struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// LoadKeys parses PEM-encoded RSA key material. privatePEM may be nil for
// verify-only deployments; issuance then fails with ErrNoPrivateKey.
func LoadKeys(privatePEM, publicPEM []byte) (*Keys, error) {
	if len(publicPEM) == 0 {
		return nil, errors.New("jwt: public key PEM required")
	}

	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse public key: %w", err)
	}

	keys := &Keys{public: public}
	if len(privatePEM) > 0 {
		private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("jwt: parse private key: %w", err)
		}
		keys.private = private
	}

	return keys, nil
}

// GenerateKeys creates an ephemeral RSA key pair. Intended for tests and
// example binaries; production deployments load persisted PEM material so
// tokens survive restarts.
func GenerateKeys(bits int) (*Keys, error) {
	if bits < 2048 {
		return nil, errors.New("jwt: key size below 2048 bits")
	}
	private, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}
	return &Keys{private: private, public: &private.PublicKey}, nil
}

// ErrNoPrivateKey reports issuance attempted with a verify-only key set.
var ErrNoPrivateKey = errors.New("jwt: no private key loaded")

// PrivatePEM encodes the private key in PKCS#1 PEM, for persisting keys
// generated with GenerateKeys.
func (k *Keys) PrivatePEM() ([]byte, error) {
	if k.private == nil {
		return nil, ErrNoPrivateKey
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(k.private),
	}), nil
}

// PublicPEM encodes the public key in PKIX PEM.
func (k *Keys) PublicPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.public)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
