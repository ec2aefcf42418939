package internaldefs

import (
	authkit "github.com/varekai/authkit"
)

// CounterDef binds one engine counter to its exported name.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter, in emission order.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricSignInSuccess, Name: "authkit_signin_success_total", Help: "Successful sign-in attempts."},
	{ID: authkit.MetricSignInFailure, Name: "authkit_signin_failure_total", Help: "Failed sign-in attempts."},
	{ID: authkit.MetricSignInRateLimited, Name: "authkit_signin_rate_limited_total", Help: "Rate-limited sign-in attempts."},
	{ID: authkit.MetricRefreshSuccess, Name: "authkit_refresh_success_total", Help: "Successful refresh exchanges."},
	{ID: authkit.MetricRefreshFailure, Name: "authkit_refresh_failure_total", Help: "Failed refresh exchanges."},
	{ID: authkit.MetricRefreshReuseDetected, Name: "authkit_refresh_reuse_detected_total", Help: "Replays of rotated refresh tokens."},
	{ID: authkit.MetricRefreshRateLimited, Name: "authkit_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: authkit.MetricTwoFactorSuccess, Name: "authkit_two_factor_success_total", Help: "Successful TOTP verifications."},
	{ID: authkit.MetricTwoFactorFailure, Name: "authkit_two_factor_failure_total", Help: "Failed TOTP verifications."},
	{ID: authkit.MetricEmailVerificationRequest, Name: "authkit_email_verification_request_total", Help: "Email verification tokens issued."},
	{ID: authkit.MetricEmailVerificationSuccess, Name: "authkit_email_verification_success_total", Help: "Confirmed email verifications."},
	{ID: authkit.MetricEmailVerificationFailure, Name: "authkit_email_verification_failure_total", Help: "Rejected email verification attempts."},
	{ID: authkit.MetricPasswordResetRequest, Name: "authkit_password_reset_request_total", Help: "Password reset codes issued."},
	{ID: authkit.MetricPasswordResetSuccess, Name: "authkit_password_reset_success_total", Help: "Completed password resets."},
	{ID: authkit.MetricPasswordResetFailure, Name: "authkit_password_reset_failure_total", Help: "Rejected password reset attempts."},
	{ID: authkit.MetricAccountDeleted, Name: "authkit_account_deleted_total", Help: "Accounts deleted."},
	{ID: authkit.MetricAccountDeleteDenied, Name: "authkit_account_delete_denied_total", Help: "Account deletions denied by a guard gate."},
	{ID: authkit.MetricRateLimitHit, Name: "authkit_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// AuditDroppedName is the exported name of the audit backpressure counter.
const AuditDroppedName = "authkit_audit_dropped_total"
