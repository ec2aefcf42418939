// Package postgres implements authkit.CredentialProvider on top of a
// Postgres credentials table via pgx.
//
// The provider owns no pool lifecycle: callers pass any pgx querier
// (pgxpool.Pool in production, pgxmock in tests) and close it themselves.
// Every write targets a single row by user id, so deletion and flag flips
// are atomic without explicit transactions.
package postgres
