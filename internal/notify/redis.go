package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes player events to redis pub/sub channels. The
// realtime gateway holding the client sockets subscribes to them; a player
// without a live connection simply has no subscriber, which is fine.
type RedisNotifier struct {
	rdb *redis.Client
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisNotifier(cfg RedisConfig) *RedisNotifier {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisNotifier{rdb: rdb}
}

type envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

func (n *RedisNotifier) Notify(ctx context.Context, playerID, event string, payload any) error {
	msg, err := json.Marshal(envelope{
		Event:   event,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := n.rdb.Publish(ctx, "player:"+playerID, msg).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

func (n *RedisNotifier) Close() error {
	return n.rdb.Close()
}
