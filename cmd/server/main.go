// Command server runs the logistics engine as a standalone HTTP service.
//
// @title        AgroLink Logistics Engine API
// @version      1.0
// @description  Load matching, route optimization, and trip tracking for the AgroLink marketplace.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/agrolink/logistics-engine/internal/api"
	"github.com/agrolink/logistics-engine/internal/core/geo"
	"github.com/agrolink/logistics-engine/internal/core/ports"
	"github.com/agrolink/logistics-engine/internal/core/service"
	"github.com/agrolink/logistics-engine/internal/infrastructure/db/mongo"
	"github.com/agrolink/logistics-engine/internal/infrastructure/db/redis"
	"github.com/agrolink/logistics-engine/internal/infrastructure/gateway"
	"github.com/agrolink/logistics-engine/internal/infrastructure/queue"
	"github.com/agrolink/logistics-engine/internal/infrastructure/store"
	"github.com/agrolink/logistics-engine/internal/pkg/config"
	"github.com/agrolink/logistics-engine/pkg/logger"
)

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params := geo.Params{
		AvgSpeedKmh:         cfg.Engine.AvgSpeedKmh,
		FuelPricePerLiter:   cfg.Engine.FuelPricePerLiter,
		ConsumptionPer100Km: cfg.Engine.ConsumptionPer100Km,
		RatePerKm:           cfg.Engine.RatePerKm,
	}

	// --- Trip store: MongoDB when configured, in-memory otherwise ---
	var tripStore ports.TripStore
	var db *gomongo.Database
	if cfg.Mongo.URI != "" {
		client, database, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo := mongo.NewTripRepository(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("mongo index creation failed")
		}
		tripStore = repo
		db = database
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongo trip store")
	} else {
		tripStore = store.NewMemoryTripStore()
		log.Info().Msg("using in-memory trip store")
	}

	// --- Alert pipeline ---
	var rdb *goredis.Client
	var deduper queue.AlertDeduper
	if cfg.Alerts.Dedup {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer func() { _ = client.Close() }()
		rdb = client
		deduper = redis.NewAlertDeduper(client)
	}

	sink := gateway.NewLoggingGateway(log)
	dispatcher := queue.NewAlertDispatcher(cfg.Alerts.Workers, sink, deduper, log)
	dispatcher.Start(ctx)

	// --- Engine services ---
	matcher := service.NewLoadMatcher(params, service.MatcherOptions{
		WeightPerUnitKg: cfg.Engine.WeightPerUnitKg,
		WorkingHours:    cfg.Engine.WorkingHours,
	}, log)
	sequencer := service.NewRouteSequencer(params, log)
	tracker := service.NewTripTracker(tripStore, dispatcher, params, service.TrackerConfig{
		TickInterval:      time.Duration(cfg.Tracker.TickSeconds) * time.Second,
		DelayThreshold:    time.Duration(cfg.Tracker.DelayThresholdMinutes) * time.Minute,
		HeartbeatInterval: time.Duration(cfg.Tracker.HeartbeatMinutes) * time.Minute,
		ArrivingSoonKm:    cfg.Tracker.ArrivingSoonKm,
		ArrivalKm:         cfg.Tracker.ArrivalKm,
	}, log)

	if err := tracker.Resume(ctx); err != nil {
		log.Error().Err(err).Msg("failed to resume active trips")
	}

	e := api.NewRouter(api.Services{
		Matcher: matcher,
		Routes:  sequencer,
		Tracker: tracker,
	}, db, rdb, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("logistics engine started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("logistics engine stopped")
}
