package rate

import "errors"

// ErrRedisUnavailable wraps transport failures; a failed limiter check is
// an internal error, never an implicit allow.
var ErrRedisUnavailable = errors.New("rate limiter redis unavailable")
