package authkit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// refreshDenylist records the jti of every refresh token that has been
// exchanged. Entries live exactly as long as the token they invalidate would
// have, so the keyspace stays bounded by the refresh TTL.
type refreshDenylist struct {
	redis  redis.UniversalClient
	prefix string
}

func newRefreshDenylist(redisClient redis.UniversalClient) *refreshDenylist {
	return &refreshDenylist{redis: redisClient, prefix: "arot"}
}

// markUsed claims the jti. The SETNX result decides the race: the first
// caller gets true and may rotate, every later caller gets false and is
// holding a replayed token.
func (d *refreshDenylist) markUsed(ctx context.Context, jti string, remaining time.Duration) (bool, error) {
	if remaining <= 0 {
		remaining = time.Second
	}

	first, err := d.redis.SetNX(ctx, d.prefix+":"+jti, 1, remaining).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return first, nil
}
