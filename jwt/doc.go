// Package jwt is the token codec: it issues and verifies the signed
// access/refresh tokens carried on the wire as three dot-separated base64url
// segments, with typed claims {sub, kind, iat, exp, jti} and a fixed RS256
// signature.
//
// Decode and Validate are deliberately separate. Decode verifies signature
// and structure only; Validate layers expiry and kind checks on top, in that
// order. The ordering is a security property: tampering is rejected before
// any claim is trusted, and a wrong-kind token is never usable as the right
// kind even momentarily.
package jwt
