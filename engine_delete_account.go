package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/varekai/authkit/jwt"
)

// DeleteAccountRequest carries every proof the deletion guard demands. The
// access token names the account; password and, when enrolled, a current
// TOTP code re-authenticate the caller at the moment of deletion.
type DeleteAccountRequest struct {
	AccessToken   string
	Password      string
	TwoFactorCode string
}

// DeleteAccount permanently removes the caller's account after every gate
// passes, in order: a valid access token, the deletion rate budget, the
// current password, a fresh second-factor code when enrolled, and a
// short-lived authorization token minted for this one call. Any gate
// failing denies the whole operation and the account is untouched; the
// provider's DeleteAccount is all-or-nothing on top of that.
func (e *Engine) DeleteAccount(ctx context.Context, req DeleteAccountRequest) error {
	claims, err := e.codec.Validate(req.AccessToken, jwt.KindAccess)
	if err != nil {
		e.metricInc(MetricAccountDeleteDenied)
		e.emitAudit(ctx, AuditAccountDeleteDenied, "", false, "invalid access token")
		return mapJWTErr(err)
	}
	userID := claims.Subject

	if err := e.allow(ctx, actionDelete, userID, e.config.RateLimit.Delete, MetricAccountDeleteDenied); err != nil {
		return err
	}

	cred, err := e.lookupByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := e.hasher.Verify(req.Password, cred.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		e.metricInc(MetricAccountDeleteDenied)
		e.emitAudit(ctx, AuditAccountDeleteDenied, userID, false, "wrong password")
		return ErrInvalidCredentials
	}

	if cred.TwoFactorEnabled {
		if req.TwoFactorCode == "" {
			e.metricInc(MetricAccountDeleteDenied)
			e.emitAudit(ctx, AuditAccountDeleteDenied, userID, false, "two-factor code required")
			return ErrTwoFactorRequired
		}
		valid, err := e.totp.VerifyCode(cred.TwoFactorSecret, req.TwoFactorCode, e.clock())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !valid {
			e.metricInc(MetricAccountDeleteDenied)
			e.emitAudit(ctx, AuditAccountDeleteDenied, userID, false, "two-factor code rejected")
			return ErrTwoFactorFailed
		}
	}

	// All gates passed. Mint and immediately validate a short-lived
	// authorization token; the deletion call is bound to it rather than to
	// the longer-lived session token presented above.
	actionToken, err := e.codec.IssueAccessTTL(userID, e.config.Delete.ActionTokenTTL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := e.codec.Validate(actionToken, jwt.KindAccess); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.creds.DeleteAccount(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		e.metricInc(MetricAccountDeleteDenied)
		e.emitAudit(ctx, AuditAccountDeleteDenied, userID, false, "provider rejected deletion")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricAccountDeleted)
	e.emitAudit(ctx, AuditAccountDeleted, userID, true, "")
	return nil
}
