package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/varekai/authkit/internal/audit"
	"github.com/varekai/authkit/internal/rate"
	"github.com/varekai/authkit/internal/stores"
	"github.com/varekai/authkit/jwt"
	"github.com/varekai/authkit/password"
)

// Single-use token purposes. Each purpose is an independent namespace in the
// store: consuming one never touches the other.
const (
	purposeEmailVerify   = "email-verify"
	purposePasswordReset = "password-reset"
)

// Rate-limit action names. Keys compose as (action, subject).
const (
	actionSignIn        = "signin"
	actionRefresh       = "refresh"
	actionEmailVerify   = "email-verify"
	actionPasswordReset = "password-reset"
	actionDelete        = "delete"
)

// Engine is the credential and token lifecycle core. Construct it through
// [Builder]; the zero value is unusable. All methods are safe for concurrent
// use.
type Engine struct {
	config Config

	codec     *jwt.Codec
	hasher    *password.Hasher
	totp      *totpManager
	tokens    *stores.SingleUseStore
	limiter   *rate.Limiter
	denylist  *refreshDenylist
	audit     *audit.Dispatcher
	metrics   *metricSet
	creds     CredentialProvider
	messenger Messenger
	clock     func() time.Time
}

// Close flushes the audit dispatcher. The engine must not be used after
// Close returns.
func (e *Engine) Close() {
	e.audit.Close()
}

// mintPair issues a fresh access/refresh pair for the user.
func (e *Engine) mintPair(userID string) (TokenPair, error) {
	access, err := e.codec.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	refresh, err := e.codec.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// allow charges one unit against the budget for (action, subject). Denial
// returns a RateLimitedError carrying the retry-after hint. Backend failure
// is reported, not silently allowed; callers decide whether to fail open.
func (e *Engine) allow(ctx context.Context, action, subject string, budget Budget, deniedMetric MetricID) error {
	if !e.config.RateLimit.Enabled || e.limiter == nil {
		return nil
	}

	decision, err := e.limiter.Allow(ctx, action, subject, budget.Limit, budget.Window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !decision.Allowed {
		e.metricInc(MetricRateLimitHit)
		if deniedMetric != "" {
			e.metricInc(deniedMetric)
		}
		e.emitAudit(ctx, AuditRateLimited, subject, false, action)
		return rateLimited(decision.RetryAfter)
	}
	return nil
}

// lookupByID fetches a credential, mapping provider transport failures to
// ErrStoreUnavailable while letting ErrUserNotFound through untouched.
func (e *Engine) lookupByID(ctx context.Context, userID string) (Credential, error) {
	cred, err := e.creds.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Credential{}, ErrUserNotFound
		}
		return Credential{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return cred, nil
}

func (e *Engine) lookupByIdentifier(ctx context.Context, identifier string) (Credential, error) {
	cred, err := e.creds.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Credential{}, ErrUserNotFound
		}
		return Credential{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return cred, nil
}

// mapJWTErr translates codec sentinels into the engine's error taxonomy.
func mapJWTErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrWrongKind):
		return ErrWrongKind
	case errors.Is(err, jwt.ErrMalformed):
		return ErrMalformed
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// mapStoreErr translates single-use store sentinels into the engine's error
// taxonomy.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stores.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, stores.ErrAlreadyConsumed):
		return ErrAlreadyConsumed
	case errors.Is(err, stores.ErrExpired):
		return ErrExpired
	case errors.Is(err, stores.ErrMismatch):
		return ErrMismatch
	case errors.Is(err, stores.ErrAttemptsExceeded):
		return ErrAttemptsExceeded
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
