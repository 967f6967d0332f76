package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	UserKeyPrefix               = "user:%d"
	VerificationStatusKeyPrefix = "verification:user:%d:status"
	ProductKeyPrefix            = "product:%d"
)

const (
	UserTTL               = 5 * time.Minute
	VerificationStatusTTL = 10 * time.Minute
	ProductTTL            = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func VerificationStatusKey(userID uint) string {
	return fmt.Sprintf(VerificationStatusKeyPrefix, userID)
}

func ProductKey(productID uint) string {
	return fmt.Sprintf(ProductKeyPrefix, productID)
}

// AsideJSON implements the cache-aside pattern over a JSON payload. On a miss
// (or when the cache is down) fetch fills dest and the result is stored best
// effort. Cache failures never fail the read path.
func AsideJSON(ctx context.Context, key string, ttl time.Duration, dest interface{}, fetch func() error) error {
	if client != nil {
		if val, err := client.Get(ctx, key).Result(); err == nil {
			if unmarshalErr := json.Unmarshal([]byte(val), dest); unmarshalErr == nil {
				return nil
			}
			// Corrupt entry; drop it and fall through to the source of truth.
			client.Del(ctx, key)
		}
	}

	if err := fetch(); err != nil {
		return err
	}

	if client != nil {
		if payload, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, payload, ttl)
		}
	}
	return nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, VerificationStatusKey(userID))
}

func InvalidateProduct(ctx context.Context, productID uint) {
	Invalidate(ctx, ProductKey(productID))
}
