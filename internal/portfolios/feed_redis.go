package portfolios

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisFeed fans change notifications out across API instances with
// Redis pub/sub.
type RedisFeed struct {
	client *redis.Client
}

// NewRedisFeed creates a feed from a redis:// URL.
func NewRedisFeed(ctx context.Context, redisURL string) (*RedisFeed, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisFeed{client: client}, nil
}

// NewRedisFeedWithClient wraps an existing client.
func NewRedisFeedWithClient(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Publish(ctx context.Context, ownerID, id string) error {
	return f.client.Publish(ctx, feedChannel(ownerID, id), id).Err()
}

// Subscribe waits for the subscription to be confirmed before returning so
// that no publish after it is missed.
func (f *RedisFeed) Subscribe(ctx context.Context, ownerID, id string, fn func()) (func(), error) {
	sub := f.client.Subscribe(ctx, feedChannel(ownerID, id))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", feedChannel(ownerID, id), err)
	}

	ch := sub.Channel()
	go func() {
		for range ch {
			fn()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { _ = sub.Close() })
	}, nil
}

// Ping checks the connection.
func (f *RedisFeed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (f *RedisFeed) Close() error {
	return f.client.Close()
}
