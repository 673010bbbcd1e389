// internal/push/redis.go
//
// Redis pub/sub transport. The same type subscribes (client side) and
// publishes (server side and fixtures), so both ends agree on channel naming
// and encoding.

package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisConfig holds configuration for the redis transport
type RedisConfig struct {
	// Redis client
	RedisClient *redis.Client
}

// Redis implements Subscriber and Publisher over redis pub/sub.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed push transport
func NewRedis(cfg *RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: cfg.RedisClient}, nil
}

// Subscribe waits for the subscription to be confirmed before returning, so
// events published after Subscribe returns are not missed.
func (r *Redis) Subscribe(ctx context.Context, roomID string) (<-chan Event, error) {
	ps := r.client.Subscribe(ctx, Channel(roomID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("push: subscribe %s: %w", Channel(roomID), err)
	}

	out := make(chan Event, eventQueueSize)
	msgs := ps.Channel()
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("drop malformed push event")
					continue
				}
				if ev.RoomID == "" {
					ev.RoomID = roomID
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Publish encodes ev and sends it on the room's channel.
func (r *Redis) Publish(ctx context.Context, roomID string, ev Event) error {
	if ev.RoomID == "" {
		ev.RoomID = roomID
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, Channel(roomID), b).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
