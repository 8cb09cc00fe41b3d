package config

import (
	"time"

	"github.com/oliban/anagram-game-sub002/internal/pkg/env"
)

type Config struct {
	AuthSecret string
	DB         dbConfig
	Http       httpConfig
	Redis      redisConfig
	Service    serviceConfig
	Players    collaboratorConfig
	Rewards    collaboratorConfig
	SkillsFile string
}

type dbConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type httpConfig struct {
	ListenAddr      string
	IdleTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type redisConfig struct {
	Host     string // empty disables push notifications
	Port     string
	Password string
	DB       int
}

type serviceConfig struct {
	OpTimeout       time.Duration
	RewardRolls     int
	RefreshInterval time.Duration
	CacheMaxKeys    int64
	CacheTTL        time.Duration
}

type collaboratorConfig struct {
	Endpoint string // empty disables the collaborator
}

func FromEnv() Config {
	return Config{
		AuthSecret: env.RequireString("AUTH_SECRET"),
		DB: dbConfig{
			Host:     env.String("DB_HOST", "localhost"),
			Port:     env.String("DB_PORT", "5432"),
			User:     env.String("DB_USER", "postgres"),
			Password: env.String("DB_PASSWORD", "password"),
			Name:     env.String("DB_NAME", "phrases_service"),
		},
		Http: httpConfig{
			ListenAddr:      env.String("HTTP_LISTEN_ADDR", ":8080"),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: redisConfig{
			Host:     env.String("REDIS_HOST", ""),
			Port:     env.String("REDIS_PORT", "6379"),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
		},
		Service: serviceConfig{
			OpTimeout:       env.Duration("SERVICE_OP_TIMEOUT", 5*time.Second),
			RewardRolls:     env.Int("SERVICE_REWARD_ROLLS", 1),
			RefreshInterval: env.Duration("LEADERBOARD_REFRESH_INTERVAL", 5*time.Minute),
			CacheMaxKeys:    env.Int64("LEADERBOARD_CACHE_KEYS", 1000),
			CacheTTL:        env.Duration("LEADERBOARD_CACHE_TTL", 30*time.Second),
		},
		Players: collaboratorConfig{
			Endpoint: env.String("PLAYERS_ENDPOINT", ""),
		},
		Rewards: collaboratorConfig{
			Endpoint: env.String("REWARDS_ENDPOINT", ""),
		},
		SkillsFile: env.String("SKILL_LEVELS_FILE", ""),
	}
}
