// Command server runs the collaborative board server: the realtime
// websocket channel, the room REST API, and per-room game engines.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/inklink/boardserver/internal/auth"
	"github.com/inklink/boardserver/internal/config"
	"github.com/inklink/boardserver/internal/game"
	"github.com/inklink/boardserver/internal/httpapi"
	"github.com/inklink/boardserver/internal/room"
	"github.com/inklink/boardserver/internal/session"
	mesh "github.com/inklink/boardserver/internal/signal"
	"github.com/inklink/boardserver/internal/store"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Load()

	roomCfg := room.DefaultConfig()
	roomCfg.MaxMembers = cfg.MaxMembers
	roomCfg.EmptyTTL = cfg.RoomTTL
	rooms := room.NewRegistry(roomCfg)
	defer rooms.Close()

	snapshots := buildStore(cfg, log)

	gameCfg := game.DefaultConfig()
	gameCfg.Rounds = cfg.GameRounds
	gameCfg.TurnTime = cfg.GameTurnTime

	var origins []string
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}
	hub := session.NewHub(rooms, snapshots, mesh.NewMesh(), session.Options{
		GameConfig:     gameCfg,
		EventsPerSec:   cfg.EventsPerSec,
		EventBurst:     cfg.EventBurst,
		AllowedOrigins: origins,
	}, log)

	var tokens *auth.JWTManager
	if cfg.JWTSecret != "" {
		tokens = auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := httpapi.New(rooms, hub, snapshots, tokens, log)
	api.Register(e)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

// buildStore picks Redis when configured, in-memory otherwise.
func buildStore(cfg config.Config, log zerolog.Logger) store.SnapshotStore {
	if cfg.RedisURL == "" {
		log.Info().Msg("no REDIS_URL, canvas snapshots kept in memory")
		return store.NewMemory()
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("bad REDIS_URL")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis unreachable")
	}
	log.Info().Str("addr", opts.Addr).Msg("canvas snapshots backed by redis")
	return store.NewRedis(client, cfg.SnapshotTTL)
}
