package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mediawall/panosync/go/internal/clocksync"
	"github.com/mediawall/panosync/go/internal/gateway"
	"github.com/mediawall/panosync/go/internal/playback"
	"github.com/mediawall/panosync/go/internal/stats"
	"github.com/mediawall/panosync/go/internal/syncloop"
	"github.com/mediawall/panosync/go/internal/transport"
	"github.com/mediawall/panosync/go/internal/viewport"
)

const staleSampleThreshold = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := transport.ConnectNATS(cfg.NATS.URL, cfg.NATS.ClockSubject, cfg.NATS.OrientationSubject)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("failed to connect to NATS")
	}
	defer bus.Close()

	clock := clockwork.NewRealClock()
	player := playback.NewSimPlayer(cfg.Node.VideoDurationSec)

	runner := syncloop.NewRunner(clocksync.Config{
		Master:      cfg.Node.Master,
		SoftSyncMin: cfg.Sync.SoftSyncMin,
		SoftSyncMax: cfg.Sync.SoftSyncMax,
	}, player, bus, clock, time.Second/time.Duration(cfg.Sync.FrameRate))

	if !cfg.Node.Master {
		if err := bus.SubscribeClock(runner.OnClockSample); err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to clock channel")
		}
	}

	layout, err := viewport.NewLayout(cfg.Viewports.Count, cfg.Viewports.FOV)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid viewport layout")
	}
	tracker := viewport.NewTracker(layout)
	if err := bus.SubscribeOrientation(tracker.OnOrientation); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to orientation channel")
	}

	var sink stats.Sink
	db := setupStatsDatabase(cfg)
	if db != nil {
		defer db.Close()
		repo := stats.NewRepository(db)
		sink = repo
		runner.SetSeekObserver(stats.NewSeekRecorder(repo, clock))
	}
	recorder := stats.NewRecorder(runner, sink, clock, time.Duration(cfg.Stats.SampleIntervalSec)*time.Second)
	recorder.EnableRetention(time.Duration(cfg.Stats.RetentionHours) * time.Hour)

	health := stats.NewHealthChecker(bus, db, runner, clock, staleSampleThreshold)
	gw := gateway.NewGateway(runner, tracker, clock, health)
	server := gw.Server(cfg.Gateway.Port)

	go func() {
		if err := runner.Run(ctx); err != nil {
			log.Error().Err(err).Msg("sync loop exited with error")
			stop()
		}
	}()
	go func() {
		if err := recorder.Run(ctx); err != nil {
			log.Error().Err(err).Msg("stats recorder exited with error")
		}
	}()
	go func() {
		if err := gw.RunBroadcaster(ctx); err != nil {
			log.Error().Err(err).Msg("status broadcaster exited with error")
		}
	}()
	go func() {
		log.Info().Str("addr", server.Addr).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("gateway server failed")
			stop()
		}
	}()

	log.Info().
		Bool("master", cfg.Node.Master).
		Int("viewports", cfg.Viewports.Count).
		Str("nats_url", cfg.NATS.URL).
		Msg("panosync started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("gateway shutdown failed")
	}
}

func setupStatsDatabase(cfg *Config) *sql.DB {
	if !cfg.Stats.Enabled {
		return nil
	}

	db, err := stats.OpenDatabase(stats.DBConfigFromEnv().DSN())
	if err != nil {
		// Stats are an observability extra; run degraded instead of dying.
		log.Error().Err(err).Msg("stats database unavailable, recording to logs only")
		return nil
	}
	log.Info().Msg("stats database connected")
	return db
}
