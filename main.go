package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"garage_config/internal/api"
	"garage_config/internal/api/handler"
	"garage_config/internal/api/middleware"
	"garage_config/internal/config"
	"garage_config/internal/iot"
	"garage_config/internal/logger"
	"garage_config/internal/realtime"
	"garage_config/internal/repository"
	"garage_config/internal/repository/memory"
	"garage_config/internal/repository/postgresql"
	"garage_config/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	zapLog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "garage-config-api")
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer zapLog.Sync() //nolint:errcheck
	zapLog.Debug("configuration loaded", zap.Strings("defaulted", cfg.Defaulted))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Storage: PostgreSQL when configured and reachable, otherwise in memory
	var (
		db          *sql.DB
		garageRepo  repository.GarageRepository
		deployRepo  repository.DeploymentRepository
		storageMode = "memory"
	)
	if cfg.UseDatabase() {
		db, err = postgresql.NewDB(cfg)
		if err == nil {
			err = postgresql.EnsureSchema(ctx, db)
		}
		if err != nil {
			zapLog.Warn("database unavailable, using in-memory fallback", zap.Error(err))
			if db != nil {
				db.Close()
				db = nil
			}
		}
	}
	if db != nil {
		defer db.Close()
		garageRepo = postgresql.NewPgGarageRepository(db)
		deployRepo = postgresql.NewPgDeploymentRepository(db)
		storageMode = "postgres"
	} else {
		garageRepo = memory.NewGarageRepository()
		deployRepo = memory.NewDeploymentRepository()
	}
	zapLog.Info("storage ready", zap.String("storage", storageMode))

	// 3. Real-time fan-out, shared through Redis when configured
	hub := realtime.NewHub(zapLog.Named("ws"))
	go hub.Run(ctx)

	var events service.EventPublisher = hub
	realtimeMode := "local"
	if cfg.RedisAddr != "" {
		redisClient := realtime.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		relay := realtime.NewRedisRelay(redisClient, hub, zapLog.Named("relay"))
		if err := relay.Start(ctx); err != nil {
			zapLog.Warn("redis relay unavailable, events stay on this instance", zap.Error(err))
		} else {
			events = relay
			realtimeMode = "redis"
		}
	}

	garageService := service.NewGarageService(garageRepo, events, zapLog.Named("garages"))

	// 4. Device integration: config publisher and occupancy queue
	var (
		publisher service.ConfigPublisher
		sqsClient *sqs.Client
	)
	if cfg.UseAWS() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			zapLog.Fatal("cannot load AWS SDK config", zap.Error(err))
		}
		if cfg.IoTMQTTEndpoint != "" {
			publisher = iot.NewIoTDataPlanePublisher(iot.NewIoTDataPlaneClient(awsCfg, cfg.IoTMQTTEndpoint))
			zapLog.Info("deployments publish through AWS IoT", zap.String("endpoint", cfg.IoTMQTTEndpoint))
		}
		if cfg.SQSOccupancyQueueURL != "" {
			sqsClient = sqs.NewFromConfig(awsCfg)
		}
	}
	if publisher == nil && cfg.MQTTBroker != "" {
		mqttPublisher, err := iot.NewMQTTPublisher(iot.MQTTOptions{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, zapLog.Named("mqtt"))
		if err != nil {
			zapLog.Warn("mqtt broker unavailable, deployments disabled", zap.Error(err))
		} else {
			defer mqttPublisher.Close()
			publisher = mqttPublisher
		}
	}
	if publisher == nil {
		zapLog.Warn("no config publisher configured, POST /api/garages/:id/deploy will return 503")
	}

	var wg sync.WaitGroup
	if sqsClient != nil {
		consumer := iot.NewSQSConsumer(sqsClient, cfg.SQSOccupancyQueueURL, garageService, zapLog.Named("sqs"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(ctx)
		}()
	}

	// 5. HTTP
	services := api.Services{
		Garages: garageService,
		Deploys: service.NewDeployService(garageService, deployRepo, publisher, zapLog.Named("deploy")),
		Uploads: service.NewUploadService(cfg.UploadDir),
		GitHub:  service.NewGitHubService(cfg),
	}
	authMw := middleware.NewAuthMiddleware(service.NewAuthService(cfg.AuthJWTSecret))
	if !authMw.Enabled() {
		zapLog.Warn("AUTH_JWT_SECRET not set, API requests are not authenticated")
	}
	router := api.SetupRouter(cfg.FrontendURL, services, authMw,
		handler.NewWebSocketHandler(hub),
		handler.NewHealthHandler(db, storageMode, realtimeMode, hub))

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}
	go func() {
		zapLog.Info("server listening", zap.String("port", cfg.ServerPort),
			zap.String("storage", storageMode), zap.String("realtime", realtimeMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("forced shutdown", zap.Error(err))
	}
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		zapLog.Warn("sqs consumer did not stop in time")
	}
	zapLog.Info("server stopped")
}
