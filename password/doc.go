// Package password provides argon2id hashing and verification with
// parameters encoded in the PHC string format, so hashes remain verifiable
// after the configured cost changes.
package password
