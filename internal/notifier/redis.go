package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"OptionSentinel/internal/model"
)

// Publisher is the subset of a Redis client the publisher needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes strategies as JSON on a pub/sub channel.
type RedisPublisher struct {
	Client  Publisher
	Channel string
}

// NewRedisPublisher connects to addr lazily; go-redis dials on first use.
func NewRedisPublisher(addr, password string, db int, channel string) (*RedisPublisher, *redis.Client) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisPublisher{Client: client, Channel: channel}, client
}

func (p *RedisPublisher) Notify(ctx context.Context, s *model.OptionsStrategy) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}
	if err := p.Client.Publish(ctx, p.Channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.Channel, err)
	}
	return nil
}
