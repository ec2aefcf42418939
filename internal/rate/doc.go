// Package rate enforces per-key request budgets with windowed Redis
// counters. Keys compose (action, subject) so different actions and users
// never share a budget. Denial is advisory: the limiter reports the
// decision and a retry-after hint, and never blocks or sleeps.
package rate
