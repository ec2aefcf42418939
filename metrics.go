package authkit

import "sync/atomic"

// MetricID names one engine counter. IDs are stable strings so exporters can
// use them directly as instrument names.
type MetricID string

const (
	MetricSignInSuccess     MetricID = "signin_success"
	MetricSignInFailure     MetricID = "signin_failure"
	MetricSignInRateLimited MetricID = "signin_rate_limited"

	MetricRefreshSuccess       MetricID = "refresh_success"
	MetricRefreshFailure       MetricID = "refresh_failure"
	MetricRefreshReuseDetected MetricID = "refresh_reuse_detected"
	MetricRefreshRateLimited   MetricID = "refresh_rate_limited"

	MetricTwoFactorSuccess MetricID = "two_factor_success"
	MetricTwoFactorFailure MetricID = "two_factor_failure"

	MetricEmailVerificationRequest MetricID = "email_verification_request"
	MetricEmailVerificationSuccess MetricID = "email_verification_success"
	MetricEmailVerificationFailure MetricID = "email_verification_failure"

	MetricPasswordResetRequest MetricID = "password_reset_request"
	MetricPasswordResetSuccess MetricID = "password_reset_success"
	MetricPasswordResetFailure MetricID = "password_reset_failure"

	MetricAccountDeleted      MetricID = "account_deleted"
	MetricAccountDeleteDenied MetricID = "account_delete_denied"

	MetricRateLimitHit MetricID = "rate_limit_hit"
)

var allMetricIDs = []MetricID{
	MetricSignInSuccess, MetricSignInFailure, MetricSignInRateLimited,
	MetricRefreshSuccess, MetricRefreshFailure, MetricRefreshReuseDetected, MetricRefreshRateLimited,
	MetricTwoFactorSuccess, MetricTwoFactorFailure,
	MetricEmailVerificationRequest, MetricEmailVerificationSuccess, MetricEmailVerificationFailure,
	MetricPasswordResetRequest, MetricPasswordResetSuccess, MetricPasswordResetFailure,
	MetricAccountDeleted, MetricAccountDeleteDenied,
	MetricRateLimitHit,
}

// metricSet is a fixed table of atomic counters. Increment is lock-free and
// safe under any number of concurrent flows; Snapshot copies without pausing
// writers.
type metricSet struct {
	counters map[MetricID]*atomic.Uint64
}

func newMetricSet() *metricSet {
	counters := make(map[MetricID]*atomic.Uint64, len(allMetricIDs))
	for _, id := range allMetricIDs {
		counters[id] = new(atomic.Uint64)
	}
	return &metricSet{counters: counters}
}

func (m *metricSet) inc(id MetricID) {
	if m == nil {
		return
	}
	if c, ok := m.counters[id]; ok {
		c.Add(1)
	}
}

// Snapshot returns a point-in-time copy of every counter.
func (m *metricSet) Snapshot() map[MetricID]uint64 {
	if m == nil {
		return nil
	}
	out := make(map[MetricID]uint64, len(m.counters))
	for id, c := range m.counters {
		out[id] = c.Load()
	}
	return out
}

// MetricsSnapshot returns the current value of every engine counter, or nil
// when metrics are disabled.
func (e *Engine) MetricsSnapshot() map[MetricID]uint64 {
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.inc(id)
}
