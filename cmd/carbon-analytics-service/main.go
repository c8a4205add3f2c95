package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"carbon-analytics-service/internal/analytics"
	"carbon-analytics-service/internal/auth"
	"carbon-analytics-service/internal/config"
	"carbon-analytics-service/internal/db"
	"carbon-analytics-service/internal/emission"
	httphandler "carbon-analytics-service/internal/http"
	"carbon-analytics-service/internal/http/middleware"
	"carbon-analytics-service/internal/ingest"
	"carbon-analytics-service/internal/logger"
	"carbon-analytics-service/internal/observability"
	"carbon-analytics-service/internal/repository"
	"carbon-analytics-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)
	decimal.MarshalJSONWithoutQuotes = true

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	factors := analytics.NewFactors(
		cfg.Factors.GridEmission,
		cfg.Factors.ICEBaseline,
		cfg.Factors.FuelLiter,
		cfg.Factors.TreeAbsorption,
		cfg.Factors.Credit,
		cfg.Factors.PricePerKg,
	)

	emissionRepo := repository.NewEmissionRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)

	analyticsService := service.NewAnalyticsService(emissionRepo, vehicleRepo, service.Options{
		DefaultRangeDays:   cfg.Analytics.DefaultRangeDays,
		MaxRangeDays:       cfg.Analytics.MaxRangeDays,
		HistoryDays:        cfg.Analytics.HistoryDays,
		MaxPredictionCount: cfg.Analytics.MaxPredictionCount,
		HeatmapPrecision:   cfg.Analytics.HeatmapPrecision,
		Factors:            factors,
	})
	emissionService := service.NewEmissionService(emissionRepo, vehicleRepo, emission.NewCalculator(factors))

	metrics := observability.NewMetrics()

	authMiddleware := middleware.Anonymous()
	if cfg.Auth.AccessSecret != "" {
		authMiddleware = middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret))
	} else {
		appLogger.Warn().Msg("JWT_ACCESS_SECRET not set, serving analytics without authentication")
	}

	handler := httphandler.NewHandler(analyticsService, emissionService, vehicleRepo, appLogger)
	router := httphandler.NewRouter(handler, authMiddleware, metrics, appLogger, httphandler.RouterConfig{
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := ingest.NewProcessor(emissionService, metrics, appLogger)
	var workers sync.WaitGroup

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := ingest.NewKafkaConsumer(cfg.Kafka, processor, appLogger)
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := consumer.Run(ctx); err != nil {
				appLogger.Error().Err(err).Msg("kafka consumer stopped")
			}
			if err := consumer.Close(); err != nil {
				appLogger.Warn().Err(err).Msg("kafka reader close")
			}
		}()
	}

	var subscriber *ingest.MQTTSubscriber
	if cfg.MQTT.Broker != "" {
		client, err := ingest.NewMQTTClient(cfg.MQTT, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect mqtt broker")
		}
		subscriber = ingest.NewMQTTSubscriber(client, cfg.MQTT.Topic, processor, appLogger)
		if err := subscriber.Start(); err != nil {
			appLogger.Fatal().Err(err).Str("topic", cfg.MQTT.Topic).Msg("failed to subscribe")
		}
		appLogger.Info().Str("topic", cfg.MQTT.Topic).Msg("mqtt subscriber started")
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info().Str("addr", addr).Msg("starting carbon analytics service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("http shutdown")
	}
	// Consumers finish their in-flight trips before the pool closes.
	if subscriber != nil {
		subscriber.Stop()
	}
	workers.Wait()

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
