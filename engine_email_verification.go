package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/varekai/authkit/internal"
)

// RequestEmailVerification issues a fresh single-use verification token for
// the user, supersedes any earlier one, and delivers it through the
// Messenger. The raw token is also returned so callers that embed it in
// their own delivery flow (deep links, custom templates) can.
func (e *Engine) RequestEmailVerification(ctx context.Context, userID string) (string, error) {
	cred, err := e.lookupByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if cred.Verified {
		return "", ErrAlreadyVerified
	}

	if err := e.allow(ctx, actionEmailVerify, userID, e.config.RateLimit.EmailVerification, ""); err != nil {
		return "", err
	}

	token, hash, err := internal.NewSecretToken()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.tokens.Issue(ctx, purposeEmailVerify, userID, hash, e.config.EmailVerification.TTL); err != nil {
		return "", mapStoreErr(err)
	}

	body := fmt.Sprintf("Your verification token: %s\nIt expires in %s.", token, e.config.EmailVerification.TTL)
	if err := e.messenger.Send(ctx, cred.Identifier, "Verify your email", body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricEmailVerificationRequest)
	e.emitAudit(ctx, AuditEmailVerifyRequested, userID, true, "")
	return token, nil
}

// ConfirmEmailVerification consumes the live verification token for the
// user and marks the account verified. Consumption is exactly-once: a
// concurrent duplicate or a replay fails with ErrAlreadyConsumed. On success
// a token pair is minted so the newly verified user is signed in.
func (e *Engine) ConfirmEmailVerification(ctx context.Context, userID, token string) (TokenPair, error) {
	cred, err := e.lookupByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	if cred.Verified {
		return TokenPair{}, ErrAlreadyVerified
	}

	err = e.tokens.Consume(ctx, purposeEmailVerify, userID, internal.HashSecret(token), e.config.EmailVerification.MaxAttempts)
	if err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, AuditEmailVerifyConfirmed, userID, false, "token rejected")
		return TokenPair{}, mapStoreErr(err)
	}

	if err := e.creds.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pair, err := e.mintPair(userID)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.emitAudit(ctx, AuditEmailVerifyConfirmed, userID, true, "")
	return pair, nil
}
