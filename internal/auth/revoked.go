package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList is a Redis-backed denylist of token ids. Logout records the
// presented token's jti here for the token's remaining lifetime, so a cleared
// cookie cannot be replayed until natural expiry.
type RevocationList struct {
	rdb *redis.Client
}

func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb}
}

// Revoke marks jti as revoked for ttl.
func (l *RevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to deny
	}
	return l.rdb.Set(ctx, "revoked:"+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := l.rdb.Get(ctx, "revoked:"+jti).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
