package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fathima-sithara/snip/internal/api"
	"github.com/fathima-sithara/snip/internal/app"
	"github.com/fathima-sithara/snip/internal/auth"
	"github.com/fathima-sithara/snip/internal/config"
	"github.com/fathima-sithara/snip/internal/database"
	"github.com/fathima-sithara/snip/internal/events"
	"github.com/fathima-sithara/snip/internal/logger"
	"github.com/fathima-sithara/snip/internal/realtime"
	"github.com/fathima-sithara/snip/internal/repository"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(logger.Config{Development: cfg.IsDevelopment(), OutputPath: cfg.App.LogFile})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	lg.Info("starting snip server", zap.String("env", cfg.App.Env), zap.Int("port", cfg.App.Port))

	ctx := context.Background()
	db, mongoClient, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, lg)
	if err != nil {
		lg.Fatal("mongo unavailable", zap.Error(err))
	}
	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, lg)
	if err != nil {
		lg.Fatal("redis unavailable", zap.Error(err))
	}

	profiles := repository.NewProfileRepo(db, cfg.Mongo.UsersCollection, lg)
	groups := repository.NewGroupRepo(db, cfg.Mongo.GroupsCollection, cfg.PollInterval, lg)
	creds := repository.NewCredentialRepo(db, cfg.Mongo.CredentialsCollection)
	chats := realtime.NewChannel(rdb, realtime.Options{Prefix: cfg.Redis.Prefix}, lg)

	authSvc := auth.NewService(creds, auth.ServiceConfig{
		BcryptCost:             cfg.Auth.BcryptCost,
		PasswordMinEntropyBits: cfg.Auth.PasswordMinEntropyBits,
	}, lg)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTTL)
	revoker := auth.NewRevoker(rdb, cfg.Redis.Prefix)

	deps := app.Deps{
		Auth:     authSvc,
		Profiles: profiles,
		Groups:   groups,
		Chats:    chats,
		Location: cfg.Location,
		Log:      lg,
	}
	var producer *events.Producer
	if cfg.KafkaEnabled() {
		producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MessageSentTopic, cfg.Kafka.GroupCreatedTopic)
		deps.Events = producer
		lg.Info("kafka publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		lg.Warn("kafka brokers not configured, events will not be published")
	}

	h := api.NewHandler(app.New(deps), tokens, revoker, lg)
	srv := api.NewServer(h, api.Options{
		Port: cfg.App.Port,
		Config: fiber.Config{
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		Limiter: api.NewRateLimiter(rdb, cfg.Redis.Prefix, cfg.RateLimit.Requests, cfg.RateWindow, lg),
	}, lg)

	go func() {
		if err := srv.Listen(); err != nil {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		lg.Error("fiber shutdown failed", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			lg.Error("kafka writer close failed", zap.Error(err))
		}
	}
	if err := mongoClient.Disconnect(shutCtx); err != nil {
		lg.Error("mongo disconnect failed", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		lg.Error("redis close failed", zap.Error(err))
	}
	lg.Info("shutdown complete")
}
