package authkit

import (
	"context"
	"errors"
	"fmt"
)

// SignIn authenticates an identifier/password pair, enforces email
// verification and the second factor when enrolled, and mints a token pair.
//
// Failure order is fixed: rate budget, credential check, verification state,
// second factor. The rate budget is charged before the credential lookup so
// guessing burns budget whether or not the identifier exists.
func (e *Engine) SignIn(ctx context.Context, identifier, pass, twoFactorCode string) (TokenPair, error) {
	if err := e.allow(ctx, actionSignIn, identifier, e.config.RateLimit.SignIn, MetricSignInRateLimited); err != nil {
		return TokenPair{}, err
	}

	cred, err := e.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same failure as a wrong password. Identifier existence is
			// not observable through this endpoint.
			e.metricInc(MetricSignInFailure)
			e.emitAudit(ctx, AuditSignIn, "", false, "unknown identifier")
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	ok, err := e.hasher.Verify(pass, cred.PasswordHash)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, AuditSignIn, cred.UserID, false, "wrong password")
		return TokenPair{}, ErrInvalidCredentials
	}

	if !cred.Verified {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, AuditSignIn, cred.UserID, false, "email unverified")
		return TokenPair{}, ErrEmailUnverified
	}

	if cred.TwoFactorEnabled {
		if twoFactorCode == "" {
			e.emitAudit(ctx, AuditSignInTwoFactor, cred.UserID, false, "code required")
			return TokenPair{}, ErrTwoFactorRequired
		}
		valid, err := e.totp.VerifyCode(cred.TwoFactorSecret, twoFactorCode, e.clock())
		if err != nil {
			return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !valid {
			e.metricInc(MetricTwoFactorFailure)
			e.emitAudit(ctx, AuditSignInTwoFactor, cred.UserID, false, "code rejected")
			return TokenPair{}, ErrTwoFactorFailed
		}
		e.metricInc(MetricTwoFactorSuccess)
		e.emitAudit(ctx, AuditSignInTwoFactor, cred.UserID, true, "")
	}

	pair, err := e.mintPair(cred.UserID)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, AuditSignIn, cred.UserID, true, "")
	return pair, nil
}
