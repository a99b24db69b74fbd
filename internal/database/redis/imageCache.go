package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "image:"

// ImageCache keeps the raw bytes of remote images. Redis failures are logged and reported
// as cache misses so the loader falls back to fetching.
type ImageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewImageCache(client *redis.Client, ttl time.Duration) *ImageCache {
	return &ImageCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *ImageCache) Get(ctx context.Context, url string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key(url)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).Warn("Image cache read failed")
		}
		return nil, false
	}
	return data, true
}

func (c *ImageCache) Set(ctx context.Context, url string, data []byte) {
	if err := c.client.Set(ctx, key(url), data, c.ttl).Err(); err != nil {
		logrus.WithError(err).Warn("Image cache write failed")
	}
}

func key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}
