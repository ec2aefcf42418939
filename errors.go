package authkit

import (
	"errors"
	"fmt"
	"time"
)

// Policy failures. These are returned as-is to callers, which map them to
// transport-level responses. Backend failures are wrapped with
// ErrStoreUnavailable instead so the two classes stay distinguishable.
var (
	// ErrExpired reports a token or code whose expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrSignatureInvalid reports a token whose signature does not verify.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrWrongKind reports a structurally valid token presented where a
	// different kind was expected.
	ErrWrongKind = errors.New("wrong token kind")
	// ErrMalformed reports a token that is not structurally a signed token.
	ErrMalformed = errors.New("malformed token")
	// ErrNotFound reports that no live single-use token exists for the
	// owner and purpose.
	ErrNotFound = errors.New("token not found")
	// ErrAlreadyConsumed reports a single-use token that has already been
	// consumed, including replay of a rotated refresh token.
	ErrAlreadyConsumed = errors.New("token already consumed")
	// ErrMismatch reports a presented value that differs from the live
	// single-use token.
	ErrMismatch = errors.New("token mismatch")
	// ErrAttemptsExceeded reports a single-use token burned by too many
	// mismatched presentations.
	ErrAttemptsExceeded = errors.New("token attempts exceeded")
	// ErrRateLimited reports an exhausted rate budget for the key.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidCredentials reports a failed identifier/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTwoFactorRequired reports that a TOTP code is required and absent.
	ErrTwoFactorRequired = errors.New("two-factor code required")
	// ErrTwoFactorFailed reports a rejected TOTP code.
	ErrTwoFactorFailed = errors.New("two-factor verification failed")
	// ErrTwoFactorNotEnrolled reports a 2FA operation against a credential
	// with no pending or enabled secret.
	ErrTwoFactorNotEnrolled = errors.New("two-factor not enrolled")
	// ErrTwoFactorAlreadyEnabled reports an enrollment attempt while a
	// confirmed second factor is active. Disable it first.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor already enabled")
	// ErrEmailUnverified reports a sign-in against an unverified account.
	ErrEmailUnverified = errors.New("email unverified")
	// ErrAlreadyVerified reports a verification attempt against an account
	// that is already verified.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrUserNotFound reports an unknown user id or identifier.
	// CredentialProvider implementations must return it for missing rows.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordPolicy reports a new password rejected by the hasher's
	// minimum requirements.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrEngineNotReady reports use of an Engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrStoreUnavailable wraps Redis or provider transport failures.
	// Callers should surface it as an opaque internal error.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)

// RateLimitedError carries the retry-after hint alongside the ErrRateLimited
// identity, so transports can set a backoff header without the engine
// dictating header names.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter <= 0 {
		return ErrRateLimited.Error()
	}
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Is makes errors.Is(err, ErrRateLimited) hold for wrapped instances.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

func rateLimited(retryAfter time.Duration) error {
	return &RateLimitedError{RetryAfter: retryAfter}
}
