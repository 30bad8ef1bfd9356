package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fathima-sithara/snip/internal/app"
	"github.com/fathima-sithara/snip/internal/auth"
	"github.com/fathima-sithara/snip/internal/config"
	"github.com/fathima-sithara/snip/internal/database"
	"github.com/fathima-sithara/snip/internal/logger"
	"github.com/fathima-sithara/snip/internal/realtime"
	"github.com/fathima-sithara/snip/internal/repository"
	"github.com/fathima-sithara/snip/internal/session"
	"github.com/fathima-sithara/snip/internal/tui"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "snip:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The screen belongs to the UI, so logs always go to a file.
	logPath := cfg.App.LogFile
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(cfg.Client.SessionPath), "snip.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return fmt.Errorf("log dir: %w", err)
	}
	lg, err := logger.New(logger.Config{Development: cfg.IsDevelopment(), OutputPath: logPath})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := context.Background()
	db, mongoClient, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, lg)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, lg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	creds := repository.NewCredentialRepo(db, cfg.Mongo.CredentialsCollection)
	authSvc := auth.NewService(creds, auth.ServiceConfig{
		BcryptCost:             cfg.Auth.BcryptCost,
		PasswordMinEntropyBits: cfg.Auth.PasswordMinEntropyBits,
	}, lg)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTTL)
	provider := auth.NewProvider(authSvc, tokens, auth.NewFileTokenStore(cfg.Client.SessionPath), auth.NewRevoker(rdb, cfg.Redis.Prefix), lg)
	gate := session.NewGate(provider)

	a := app.New(app.Deps{
		Auth:     gate,
		Profiles: repository.NewProfileRepo(db, cfg.Mongo.UsersCollection, lg),
		Groups:   repository.NewGroupRepo(db, cfg.Mongo.GroupsCollection, cfg.PollInterval, lg),
		Chats:    realtime.NewChannel(rdb, realtime.Options{Prefix: cfg.Redis.Prefix}, lg),
		Location: cfg.Location,
		Log:      lg,
	})

	m := tui.New(tui.Options{App: a, Gate: gate, Email: provider.Email, Log: lg})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		lg.Error("ui exited with error", zap.Error(err))
		return err
	}
	return nil
}
