package authkit

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/varekai/authkit/internal/audit"
	"github.com/varekai/authkit/internal/rate"
	"github.com/varekai/authkit/internal/stores"
	"github.com/varekai/authkit/jwt"
	"github.com/varekai/authkit/password"
)

// Builder assembles an Engine. Required collaborators are Redis, a
// CredentialProvider, and a Messenger; everything else has defaults.
type Builder struct {
	config    Config
	hasConfig bool

	redis     redis.UniversalClient
	creds     CredentialProvider
	messenger Messenger
	auditSink AuditSink
	clock     func() time.Time
}

// New starts an empty builder. Build falls back to [DefaultConfig] unless
// WithConfig supplies one.
func New() *Builder {
	return &Builder{}
}

// WithConfig replaces the default configuration wholesale. Call it before
// the other With methods that override individual pieces.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	b.hasConfig = true
	return b
}

// WithRedis supplies the Redis client backing single-use tokens, rate
// budgets, and refresh rotation tracking.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialProvider connects the engine to the caller's user database.
func (b *Builder) WithCredentialProvider(p CredentialProvider) *Builder {
	b.creds = p
	return b
}

// WithMessenger supplies the outbound delivery channel for verification
// links and reset codes.
func (b *Builder) WithMessenger(m Messenger) *Builder {
	b.messenger = m
	return b
}

// WithAuditSink overrides the sink audit events are dispatched to. Ignored
// when Config.Audit.Enabled is false.
func (b *Builder) WithAuditSink(s AuditSink) *Builder {
	b.auditSink = s
	return b
}

// WithClock overrides the time source for every expiry and window check.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration, loads key material, and wires every
// component. The returned Engine is ready for concurrent use.
func (b *Builder) Build() (*Engine, error) {
	cfg := b.config
	if !b.hasConfig {
		cfg = DefaultConfig()
	}
	if b.clock != nil {
		cfg.Clock = b.clock
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("builder: a Redis client is required")
	}
	if b.creds == nil {
		return nil, errors.New("builder: a CredentialProvider is required")
	}
	if b.messenger == nil {
		return nil, errors.New("builder: a Messenger is required")
	}

	keys, err := jwt.LoadKeys(cfg.JWT.PrivateKeyPEM, cfg.JWT.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("builder: loading JWT keys: %w", err)
	}
	codec, err := jwt.NewCodec(keys, jwt.Config{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
		Clock:      cfg.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("builder: constructing JWT codec: %w", err)
	}

	hasher, err := password.NewHasher(password.Params{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("builder: constructing password hasher: %w", err)
	}

	var metrics *metricSet
	if cfg.Metrics.Enabled {
		metrics = newMetricSet()
	}

	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	return &Engine{
		config:    cfg,
		codec:     codec,
		hasher:    hasher,
		totp:      newTOTPManager(cfg.TOTP),
		tokens:    stores.NewSingleUseStore(b.redis, "a1u", cfg.Clock),
		limiter:   rate.New(b.redis, "arl"),
		denylist:  newRefreshDenylist(b.redis),
		audit:     dispatcher,
		metrics:   metrics,
		creds:     b.creds,
		messenger: b.messenger,
		clock:     cfg.Clock,
	}, nil
}
