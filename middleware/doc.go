// Package middleware provides net/http glue for guarding routes with
// authkit access tokens.
//
// [RequireAccess] rejects requests without a valid Bearer access token and
// stores the authenticated [authkit.Identity] in the request context for
// handlers downstream.
//
// # What this package must NOT do
//
//   - Touch Redis. Access validation is pure signature and claim checking.
//   - Leak the rejection reason to the client; every failure is a plain 401.
package middleware
