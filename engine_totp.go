package authkit

import (
	"context"
	"errors"
	"fmt"
)

// EnrollTOTP generates a fresh secret for the user and stores it in the
// pending state. The second factor does not gate sign-in until the user
// proves possession through [Engine.ConfirmTOTPEnrollment]. Re-enrolling
// while pending replaces the secret; enrolling while enabled is rejected.
func (e *Engine) EnrollTOTP(ctx context.Context, userID string) (TOTPProvision, error) {
	cred, err := e.lookupByID(ctx, userID)
	if err != nil {
		return TOTPProvision{}, err
	}
	if cred.TwoFactorEnabled {
		return TOTPProvision{}, ErrTwoFactorAlreadyEnabled
	}

	secret, encoded, err := e.totp.GenerateSecret()
	if err != nil {
		return TOTPProvision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.creds.SetTwoFactorSecret(ctx, userID, secret); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TOTPProvision{}, ErrUserNotFound
		}
		return TOTPProvision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, AuditTOTPEnrolled, userID, true, "")
	return TOTPProvision{
		SecretBase32: encoded,
		URI:          e.totp.ProvisionURI(encoded, cred.Identifier),
	}, nil
}

// ConfirmTOTPEnrollment verifies one code against the pending secret and,
// on success, flips the second factor to enabled. From that point SignIn
// demands a code.
func (e *Engine) ConfirmTOTPEnrollment(ctx context.Context, userID, code string) error {
	cred, err := e.lookupByID(ctx, userID)
	if err != nil {
		return err
	}
	if cred.TwoFactorEnabled {
		return ErrTwoFactorAlreadyEnabled
	}
	if !cred.TwoFactorPending || len(cred.TwoFactorSecret) == 0 {
		return ErrTwoFactorNotEnrolled
	}

	valid, err := e.totp.VerifyCode(cred.TwoFactorSecret, code, e.clock())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !valid {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, AuditTOTPConfirmed, userID, false, "code rejected")
		return ErrTwoFactorFailed
	}

	if err := e.creds.EnableTwoFactor(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricTwoFactorSuccess)
	e.emitAudit(ctx, AuditTOTPConfirmed, userID, true, "")
	return nil
}

// DisableTOTP turns the second factor off. A current code is required as
// proof of possession; losing the device is an account-recovery problem,
// not a disable path.
func (e *Engine) DisableTOTP(ctx context.Context, userID, code string) error {
	cred, err := e.lookupByID(ctx, userID)
	if err != nil {
		return err
	}
	if !cred.TwoFactorEnabled {
		return ErrTwoFactorNotEnrolled
	}

	valid, err := e.totp.VerifyCode(cred.TwoFactorSecret, code, e.clock())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !valid {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, AuditTOTPDisabled, userID, false, "code rejected")
		return ErrTwoFactorFailed
	}

	if err := e.creds.DisableTwoFactor(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, AuditTOTPDisabled, userID, true, "")
	return nil
}

// VerifyTOTP checks a code against the user's enabled secret. Used by
// callers that gate their own sensitive operations on a fresh code.
//
// A user without an enabled factor fails exactly like a wrong code:
// enrollment state is not observable through this method.
func (e *Engine) VerifyTOTP(ctx context.Context, userID, code string) error {
	cred, err := e.lookupByID(ctx, userID)
	if err != nil {
		return err
	}
	if !cred.TwoFactorEnabled || len(cred.TwoFactorSecret) == 0 {
		e.metricInc(MetricTwoFactorFailure)
		return ErrTwoFactorFailed
	}

	valid, err := e.totp.VerifyCode(cred.TwoFactorSecret, code, e.clock())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !valid {
		e.metricInc(MetricTwoFactorFailure)
		return ErrTwoFactorFailed
	}

	e.metricInc(MetricTwoFactorSuccess)
	return nil
}
