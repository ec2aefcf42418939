package authkit

import (
	"context"
	"io"

	"github.com/varekai/authkit/internal/audit"
)

// AuditEvent is one security-relevant occurrence emitted by the engine.
type AuditEvent = audit.Event

// AuditSink receives dispatched audit events. Implementations must be safe
// for concurrent use; the engine calls Emit from a single dispatcher
// goroutine, but sinks may be shared.
type AuditSink = audit.Sink

// NoOpAuditSink discards every event.
type NoOpAuditSink = audit.NoOpSink

// NewChannelAuditSink returns a sink backed by a buffered channel. Intended
// for tests and in-process consumers.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONAuditSink returns a sink that writes one JSON object per line to w.
func NewJSONAuditSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// Audit event types emitted by the engine. Stable strings; downstream
// consumers key alerting off them.
const (
	AuditSignIn                 = "signin"
	AuditSignInTwoFactor        = "signin_two_factor"
	AuditRefresh                = "refresh"
	AuditRefreshReuse           = "refresh_reuse"
	AuditEmailVerifyRequested   = "email_verification_requested"
	AuditEmailVerifyConfirmed   = "email_verification_confirmed"
	AuditPasswordResetRequested = "password_reset_requested"
	AuditPasswordResetChecked   = "password_reset_checked"
	AuditPasswordResetConfirmed = "password_reset_confirmed"
	AuditTOTPEnrolled           = "totp_enrolled"
	AuditTOTPConfirmed          = "totp_confirmed"
	AuditTOTPDisabled           = "totp_disabled"
	AuditAccountDeleted         = "account_deleted"
	AuditAccountDeleteDenied    = "account_delete_denied"
	AuditRateLimited            = "rate_limited"
)

// emitAudit records one event through the dispatcher. Nil-safe when audit is
// disabled. The reason string must be a stable classifier, never raw input.
func (e *Engine) emitAudit(ctx context.Context, eventType, userID string, success bool, reason string) {
	if e.audit == nil {
		return
	}
	e.audit.Emit(ctx, AuditEvent{
		Timestamp: e.clock(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     reason,
	})
}

// AuditDropped reports how many audit events were discarded under buffer
// pressure since the engine started.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}
