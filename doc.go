// Package authkit is a credential and token lifecycle engine: it issues and
// validates signed JWT access/refresh pairs, manages TOTP second factors,
// runs single-use email-verification tokens and password-reset codes through
// a strict created → consumed|expired state machine, and throttles every
// entry point with per-key rate budgets.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types (TokenPair, Credential, Identity).
// Coordination state — the single-use token store, rate limit buckets, audit
// dispatch — lives under internal/ and is never exported. The jwt and
// password packages are reusable leaves with no knowledge of the engine.
//
// # What this package must NOT do
//
//   - Store user records. Credentials are read and written only through the
//     caller-supplied [CredentialProvider].
//   - Send email. Outbound messages go through the [Messenger] collaborator;
//     the engine only generates token material and expiry.
//   - Expose Redis clients, record encodings, or key material in its API.
//
// # Security contract
//
// Token validation checks the signature before trusting any claim, then
// expiry, then kind. Single-use consumption is an atomic compare-and-swap:
// under concurrent presentation of the same token exactly one caller
// succeeds and every other caller observes ErrAlreadyConsumed.
package authkit
