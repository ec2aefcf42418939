// Package internal holds cryptographic primitives shared by the engine:
// high-entropy single-use secrets, numeric one-time codes, and the SHA-256
// digests stored in place of raw secret values.
package internal
