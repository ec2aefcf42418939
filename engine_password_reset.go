package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/varekai/authkit/internal"
	"github.com/varekai/authkit/password"
)

// resetDecoyDelay pads the unknown-identifier path of RequestPasswordReset
// so its response time does not separate it from a real issue-and-deliver.
const resetDecoyDelay = 100 * time.Millisecond

// RequestPasswordReset issues a short numeric reset code for the account
// behind the identifier and delivers it through the Messenger. For an
// unknown identifier it returns success with an empty code after decoy
// work and a fixed delay: this endpoint never confirms whether an account
// exists, by result or by response time. The rate budget is charged
// either way.
func (e *Engine) RequestPasswordReset(ctx context.Context, identifier string) (string, error) {
	if err := e.allow(ctx, actionPasswordReset, identifier, e.config.RateLimit.PasswordReset, ""); err != nil {
		return "", err
	}

	cred, err := e.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Mirror the cost of the real path: generate and hash a
			// code nobody will ever see, then hold the response.
			if decoy, decoyErr := internal.NewOTP(e.config.PasswordReset.CodeDigits); decoyErr == nil {
				internal.HashSecret(decoy)
			}
			select {
			case <-time.After(resetDecoyDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			e.metricInc(MetricPasswordResetRequest)
			e.emitAudit(ctx, AuditPasswordResetRequested, "", false, "unknown identifier")
			return "", nil
		}
		return "", err
	}

	code, err := internal.NewOTP(e.config.PasswordReset.CodeDigits)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.tokens.Issue(ctx, purposePasswordReset, cred.UserID, internal.HashSecret(code), e.config.PasswordReset.TTL); err != nil {
		return "", mapStoreErr(err)
	}

	body := fmt.Sprintf("Your password reset code: %s\nIt expires in %s.", code, e.config.PasswordReset.TTL)
	if err := e.messenger.Send(ctx, cred.Identifier, "Password reset code", body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, AuditPasswordResetRequested, cred.UserID, true, "")
	return code, nil
}

// CheckPasswordResetCode verifies the code against the live record without
// consuming it, so a client can validate before collecting the new password.
// Wrong codes still count against the attempt budget.
func (e *Engine) CheckPasswordResetCode(ctx context.Context, identifier, code string) error {
	cred, err := e.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}

	err = e.tokens.Validate(ctx, purposePasswordReset, cred.UserID, internal.HashSecret(code), e.config.PasswordReset.MaxAttempts)
	if err != nil {
		e.emitAudit(ctx, AuditPasswordResetChecked, cred.UserID, false, "code rejected")
		return mapStoreErr(err)
	}

	e.emitAudit(ctx, AuditPasswordResetChecked, cred.UserID, true, "")
	return nil
}

// ConfirmPasswordReset consumes the reset code and installs the new
// password. Hashing happens before consumption so a policy rejection leaves
// the code live for a corrected retry.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, identifier, code, newPassword string) error {
	cred, err := e.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, password.ErrPolicy) {
			return ErrPasswordPolicy
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	err = e.tokens.Consume(ctx, purposePasswordReset, cred.UserID, internal.HashSecret(code), e.config.PasswordReset.MaxAttempts)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, AuditPasswordResetConfirmed, cred.UserID, false, "code rejected")
		return mapStoreErr(err)
	}

	if err := e.creds.UpdatePasswordHash(ctx, cred.UserID, newHash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, AuditPasswordResetConfirmed, cred.UserID, true, "")
	return nil
}
