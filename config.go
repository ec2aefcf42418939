package authkit

import (
	"errors"
	"time"
)

// Config collects every tunable of the engine. It is constructed once,
// validated during [Builder.Build], and treated as immutable afterwards;
// components receive the pieces they need through their constructors rather
// than reading shared settings at call sites.
type Config struct {
	JWT               JWTConfig
	TOTP              TOTPConfig
	EmailVerification EmailVerificationConfig
	PasswordReset     PasswordResetConfig
	RateLimit         RateLimitConfig
	Delete            DeleteConfig
	Password          PasswordConfig
	Audit             AuditConfig
	Metrics           MetricsConfig

	// Clock supplies the current time to every expiry and window check.
	// Defaults to time.Now. Injectable for tests.
	Clock func() time.Time
}

// JWTConfig holds token TTLs and the RSA key material used to sign and
// verify access/refresh tokens. The algorithm is fixed to RS256.
type JWTConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string

	// PEM-encoded RSA keys. PrivateKeyPEM may be omitted on verify-only
	// deployments; issuance then fails.
	PrivateKeyPEM []byte
	PublicKeyPEM  []byte

	// RotateRefresh invalidates a refresh token when it is used and mints
	// a replacement pair. Replay of a rotated token fails with
	// ErrAlreadyConsumed. Enabled by default.
	RotateRefresh bool
}

// TOTPConfig holds RFC 6238 parameters for the second factor.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int    // seconds per time step
	Algorithm string // SHA1 (default), SHA256, SHA512
	Skew      int    // accepted steps on each side of now
}

// EmailVerificationConfig bounds the email-verification token lifecycle.
type EmailVerificationConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// PasswordResetConfig bounds the password-reset code lifecycle.
type PasswordResetConfig struct {
	TTL         time.Duration
	CodeDigits  int
	MaxAttempts int
}

// Budget is one rate-limit bucket: at most Limit calls per Window per key.
type Budget struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig assigns an independent budget to each throttled action.
// Keys are composed as (action, identity-or-origin), so budgets never bleed
// across actions or users.
type RateLimitConfig struct {
	Enabled           bool
	SignIn            Budget
	Refresh           Budget
	EmailVerification Budget
	PasswordReset     Budget
	Delete            Budget
}

// DeleteConfig tunes the sensitive-action guard for account deletion.
type DeleteConfig struct {
	// ActionTokenTTL is the lifetime of the authorization token minted
	// after all gates pass, immediately before the deletion call.
	ActionTokenTTL time.Duration
}

// PasswordConfig holds argon2id parameters for password hashing.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the settings the engine ships with: 15-minute access
// tokens, 7-day rotating refresh tokens, 6-digit 30-second TOTP with ±1 step
// skew, 24-hour verification tokens, 15-minute reset codes, and the rate
// budgets from the endpoint contract (deletion capped at 3 per hour).
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Issuer:        "authkit",
			RotateRefresh: true,
		},
		TOTP: TOTPConfig{
			Issuer:    "authkit",
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
			Skew:      1,
		},
		EmailVerification: EmailVerificationConfig{
			TTL:         24 * time.Hour,
			MaxAttempts: 5,
		},
		PasswordReset: PasswordResetConfig{
			TTL:         15 * time.Minute,
			CodeDigits:  6,
			MaxAttempts: 5,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			SignIn:            Budget{Limit: 10, Window: 15 * time.Minute},
			Refresh:           Budget{Limit: 30, Window: time.Hour},
			EmailVerification: Budget{Limit: 5, Window: time.Hour},
			PasswordReset:     Budget{Limit: 5, Window: time.Hour},
			Delete:            Budget{Limit: 3, Window: time.Hour},
		},
		Delete: DeleteConfig{
			ActionTokenTTL: 2 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Clock: time.Now,
	}
}

// Validate rejects configurations the engine cannot run safely.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("config: JWT.AccessTTL must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("config: JWT.RefreshTTL must exceed AccessTTL")
	}
	if len(c.JWT.PublicKeyPEM) == 0 {
		return errors.New("config: JWT.PublicKeyPEM is required")
	}
	if c.TOTP.Digits < 6 || c.TOTP.Digits > 8 {
		return errors.New("config: TOTP.Digits must be 6..8")
	}
	if c.TOTP.Period <= 0 {
		return errors.New("config: TOTP.Period must be positive")
	}
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 2 {
		return errors.New("config: TOTP.Skew must be 0..2")
	}
	if c.EmailVerification.TTL <= 0 || c.PasswordReset.TTL <= 0 {
		return errors.New("config: verification and reset TTLs must be positive")
	}
	if c.PasswordReset.CodeDigits < 6 || c.PasswordReset.CodeDigits > 10 {
		return errors.New("config: PasswordReset.CodeDigits must be 6..10")
	}
	if c.EmailVerification.MaxAttempts <= 0 || c.PasswordReset.MaxAttempts <= 0 {
		return errors.New("config: MaxAttempts must be positive")
	}
	if c.RateLimit.Enabled {
		for _, b := range []Budget{
			c.RateLimit.SignIn, c.RateLimit.Refresh,
			c.RateLimit.EmailVerification, c.RateLimit.PasswordReset,
			c.RateLimit.Delete,
		} {
			if b.Limit <= 0 || b.Window <= 0 {
				return errors.New("config: every rate budget needs a positive limit and window")
			}
		}
	}
	if c.Delete.ActionTokenTTL <= 0 || c.Delete.ActionTokenTTL > c.JWT.AccessTTL {
		return errors.New("config: Delete.ActionTokenTTL must be positive and no longer than AccessTTL")
	}
	if c.Clock == nil {
		return errors.New("config: Clock must not be nil")
	}
	return nil
}
