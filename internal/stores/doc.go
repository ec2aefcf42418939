// Package stores holds the Redis-backed single-use token engine shared by
// email verification and password reset.
//
// Each (purpose, owner) pair has at most one live record; issuing a new
// token overwrites — and thereby invalidates — the previous one. A record
// moves created → consumed (successful use, attempt exhaustion, or expiry
// tombstoning) and never leaves a terminal state. Consumption is a
// WATCH/MULTI compare-and-swap: under concurrent presentation of the same
// valid token, exactly one caller wins and the rest observe
// ErrAlreadyConsumed, across processes as well as goroutines.
package stores
