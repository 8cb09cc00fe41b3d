package notify

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisHost string
	redisPort string
)

func startRedis(ctx context.Context) (func(), error) {
	r := testcontainers.ContainerRequest{
		Image:        "redis:8.4-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: r,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := cont.Host(ctx)
	if err != nil {
		return nil, err
	}

	port, err := cont.MappedPort(ctx, "6379")
	if err != nil {
		return nil, err
	}

	redisHost = host
	redisPort = port.Port()

	return func() { _ = cont.Terminate(ctx) }, nil
}

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closer, err := startRedis(ctx)
	if err != nil {
		panic(err)
	}
	defer closer()

	os.Exit(m.Run())
}

func TestRedisNotifier(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := redis.NewClient(&redis.Options{Addr: redisHost + ":" + redisPort})
	defer sub.Close()

	pubsub := sub.Subscribe(ctx, "player:p1")
	defer pubsub.Close()

	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	n := NewRedisNotifier(RedisConfig{Host: redisHost, Port: redisPort})
	defer n.Close()

	err = n.Notify(ctx, "p1", "phrase.completed", map[string]any{"phrase_id": "ph1", "score": 42})
	require.NoError(t, err)

	select {
	case msg := <-pubsub.Channel():
		var env envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		require.Equal(t, "phrase.completed", env.Event)
		require.False(t, env.SentAt.IsZero())

		payload, ok := env.Payload.(map[string]any)
		require.True(t, ok)
		require.Equal(t, "ph1", payload["phrase_id"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for published event")
	}
}
