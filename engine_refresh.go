package authkit

import (
	"context"

	"github.com/varekai/authkit/jwt"
)

// Refresh exchanges a valid refresh token for a new token pair. With
// rotation enabled (the default) the presented token's jti is denylisted in
// the same step, so a replay of it fails with ErrAlreadyConsumed. Under
// concurrent presentation of the same token exactly one caller wins the
// exchange.
//
// With rotation disabled the presented token stays valid and is returned
// unchanged alongside a fresh access token.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := e.codec.Validate(refreshToken, jwt.KindRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, "", false, "invalid token")
		return TokenPair{}, mapJWTErr(err)
	}
	userID := claims.Subject

	if err := e.allow(ctx, actionRefresh, userID, e.config.RateLimit.Refresh, MetricRefreshRateLimited); err != nil {
		return TokenPair{}, err
	}

	if !e.config.JWT.RotateRefresh {
		access, err := e.codec.IssueAccess(userID)
		if err != nil {
			return TokenPair{}, mapJWTErr(err)
		}
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, AuditRefresh, userID, true, "")
		return TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
	}

	remaining := claims.ExpiresAt.Time.Sub(e.clock())
	first, err := e.denylist.markUsed(ctx, claims.ID, remaining)
	if err != nil {
		return TokenPair{}, err
	}
	if !first {
		e.metricInc(MetricRefreshReuseDetected)
		e.emitAudit(ctx, AuditRefreshReuse, userID, false, "rotated token replayed")
		return TokenPair{}, ErrAlreadyConsumed
	}

	pair, err := e.mintPair(userID)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditRefresh, userID, true, "")
	return pair, nil
}

// ValidateAccess checks an access token and returns the principal it
// authenticates. Pure verification: no Redis round trip, no rate charge.
func (e *Engine) ValidateAccess(accessToken string) (Identity, error) {
	claims, err := e.codec.Validate(accessToken, jwt.KindAccess)
	if err != nil {
		return Identity{}, mapJWTErr(err)
	}
	return Identity{UserID: claims.Subject}, nil
}
