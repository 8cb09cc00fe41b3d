package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oliban/anagram-game-sub002/internal/config"
	"github.com/oliban/anagram-game-sub002/internal/notify"
	"github.com/oliban/anagram-game-sub002/internal/pkg/middleware"
	"github.com/oliban/anagram-game-sub002/internal/pkg/router"
	"github.com/oliban/anagram-game-sub002/internal/players"
	"github.com/oliban/anagram-game-sub002/internal/rest"
	"github.com/oliban/anagram-game-sub002/internal/rewards"
	"github.com/oliban/anagram-game-sub002/internal/service"
	"github.com/oliban/anagram-game-sub002/internal/skill"
	"github.com/oliban/anagram-game-sub002/internal/store"
)

func run(ctx context.Context) error {
	slog.Info("starting phrases service")

	cfg := config.FromEnv()
	db, err := store.NewPostgresDB(store.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DB:       cfg.DB.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer db.Close()

	srv := service.NewPhrasesService(service.Deps{
		Store:    store.NewPostgresStore(db),
		Players:  newPlayerDirectory(cfg),
		Notifier: newNotifier(cfg),
		Rewards:  newRewardRoller(cfg),
		Skills:   newSkillLevels(cfg),
	}, service.Config{
		OpTimeout:    cfg.Service.OpTimeout,
		RewardRolls:  cfg.Service.RewardRolls,
		CacheMaxKeys: cfg.Service.CacheMaxKeys,
		CacheTTL:     cfg.Service.CacheTTL,
	})

	go srv.Run(ctx)
	go refreshLoop(ctx, srv, cfg.Service.RefreshInterval)

	rt := router.New()
	rt.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	rt.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	api := rt.SubRouter("/api/v1")
	api.Use(middleware.Recover(), middleware.Log(), middleware.Auth([]byte(cfg.AuthSecret)))
	api.Handle("/", rest.NewAPI(srv))

	httpSrv := &http.Server{
		Addr:         cfg.Http.ListenAddr,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		Handler:      rt,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// refreshLoop keeps leaderboards converging even when no completions arrive,
// which is what rolls players out of the daily and weekly windows.
func refreshLoop(ctx context.Context, srv *service.PhrasesService, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := srv.RefreshLeaderboards(ctx); err != nil {
				slog.Error("periodic leaderboard refresh failed", "error", err)
			}
		}
	}
}

func newPlayerDirectory(cfg config.Config) service.Directory {
	if cfg.Players.Endpoint == "" {
		slog.Warn("no players endpoint configured, using empty directory")
		return players.NewStaticDirectory(nil)
	}
	return players.NewRemoteDirectory(cfg.Players.Endpoint)
}

func newNotifier(cfg config.Config) service.Notifier {
	if cfg.Redis.Host == "" {
		slog.Warn("no redis configured, push notifications disabled")
		return notify.Nop{}
	}
	return notify.NewRedisNotifier(notify.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newRewardRoller(cfg config.Config) service.Roller {
	if cfg.Rewards.Endpoint == "" {
		slog.Warn("no rewards endpoint configured, collectibles disabled")
		return rewards.Nop{}
	}
	return rewards.NewRemoteRoller(cfg.Rewards.Endpoint)
}

func newSkillLevels(cfg config.Config) *skill.Levels {
	if cfg.SkillsFile == "" {
		return skill.Default()
	}

	levels, err := skill.Load(cfg.SkillsFile)
	if err != nil {
		slog.Error("failed to load skill levels, using defaults", "file", cfg.SkillsFile, "error", err)
		return skill.Default()
	}
	return levels
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("phrases service terminated with error", "error", err)
		os.Exit(1)
	}
}
