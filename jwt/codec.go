package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates token usage. A refresh token is only ever usable to
// mint a new access token, never to authorize an action directly.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Codec errors. Validate returns exactly one of these per failure mode so
// callers can map them without string matching.
var (
	ErrSignatureInvalid = errors.New("jwt: signature invalid")
	ErrMalformed        = errors.New("jwt: malformed token")
	ErrExpired          = errors.New("jwt: token expired")
	ErrWrongKind        = errors.New("jwt: wrong token kind")
)

// Claims is the typed claim set carried by access and refresh tokens.
// Subject, IssuedAt, ExpiresAt, and ID (jti) live in RegisteredClaims.
type Claims struct {
	Kind Kind `json:"kind"`
	jwt.RegisteredClaims
}

// Config tunes the codec. Clock is consulted on every issue and expiry
// check; it defaults to time.Now in NewCodec.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Clock      func() time.Time
}

// Codec issues and verifies RS256-signed tokens. It is a pure function of
// its inputs plus the key pair: safe for unlimited concurrent use.
type Codec struct {
	keys *Keys
	cfg  Config
}

// NewCodec wires a codec to an immutable key set.
func NewCodec(keys *Keys, cfg Config) (*Codec, error) {
	if keys == nil {
		return nil, errors.New("jwt: nil keys")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: TTLs must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Codec{keys: keys, cfg: cfg}, nil
}

// IssueAccess mints an access token for the subject with the configured
// short TTL.
func (c *Codec) IssueAccess(userID string) (string, error) {
	return c.issue(userID, KindAccess, c.cfg.AccessTTL)
}

// IssueAccessTTL mints an access token with an explicit TTL. Used for the
// short-lived authorization tokens minted by sensitive-action flows.
func (c *Codec) IssueAccessTTL(userID string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > c.cfg.AccessTTL {
		return "", errors.New("jwt: action TTL must be positive and no longer than AccessTTL")
	}
	return c.issue(userID, KindAccess, ttl)
}

// IssueRefresh mints a refresh token for the subject with the configured
// long TTL. The jti claim is unique per token and keys rotation tracking.
func (c *Codec) IssueRefresh(userID string) (string, error) {
	return c.issue(userID, KindRefresh, c.cfg.RefreshTTL)
}

func (c *Codec) issue(userID string, kind Kind, ttl time.Duration) (string, error) {
	if c.keys.private == nil {
		return "", ErrNoPrivateKey
	}

	now := c.cfg.Clock()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.keys.private)
}

// Decode verifies the signature and structural validity of a token and
// returns its claims. It performs no expiry or kind checks; callers that
// need them use Validate. The separation keeps expiry behavior testable
// against tokens that are signed correctly but already dead.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.keys.public, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrMalformed
	}

	return claims, nil
}

// Validate decodes the token, then checks expiry, then kind — in that order.
// Signature first: tampering is rejected before any claim is trusted.
// Expiry before kind: a dead token reports ErrExpired regardless of what it
// claims to be.
func (c *Codec) Validate(tokenStr string, expected Kind) (*Claims, error) {
	claims, err := c.Decode(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || !c.cfg.Clock().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	if claims.Kind != expected {
		return nil, ErrWrongKind
	}

	return claims, nil
}

// Refresh validates a refresh token and mints a new access token for its
// subject. Whether the presented refresh token is invalidated afterwards is
// the engine's rotation policy, not the codec's concern.
func (c *Codec) Refresh(refreshToken string) (string, error) {
	claims, err := c.Validate(refreshToken, KindRefresh)
	if err != nil {
		return "", err
	}
	return c.IssueAccess(claims.Subject)
}
