package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/silverpine/guildbank/internal/adapter/discord"
	"github.com/silverpine/guildbank/internal/adapter/ops"
	"github.com/silverpine/guildbank/internal/adapter/repository/badgerstore"
	"github.com/silverpine/guildbank/internal/adapter/repository/memory"
	"github.com/silverpine/guildbank/internal/adapter/repository/postgres"
	"github.com/silverpine/guildbank/internal/adapter/repository/sqlite"
	"github.com/silverpine/guildbank/internal/config"
	"github.com/silverpine/guildbank/internal/domain"
	"github.com/silverpine/guildbank/internal/logger"
	"github.com/silverpine/guildbank/internal/usecase/services"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("guildbank stopped with error", err, nil)
		os.Exit(1)
	}
	logger.Info("guildbank stopped", nil)
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger, cleanup, err := openLedger(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer cleanup()

	service := services.NewLedgerService(ledger)

	adminIDs, err := cfg.Discord.AdminUserIDs()
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	format := discord.NewFormatter()
	dispatcher := discord.NewDispatcher(cfg.Discord.Prefix, service, discord.NewStaticOracle(adminIDs), format)
	bot, err := discord.NewBot(ctx, cfg.Discord.Token, cfg.Discord.ChannelID, cfg.Discord.GuildID, dispatcher, format)
	if err != nil {
		return err
	}

	mux := ops.NewRouter(ops.NewLedgerController(service), ops.BasicAuth(cfg.Ops.AuthID, cfg.Ops.AuthKeyHash))
	server := &http.Server{
		Addr:              cfg.Ops.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group.Go(func() error {
		logger.Info("starting discord bot", logger.Fields{
			"prefix":  cfg.Discord.Prefix,
			"channel": cfg.Discord.ChannelID,
		})
		if err := bot.Start(); err != nil {
			return err
		}
		<-ctx.Done()
		return bot.Stop()
	})

	group.Go(func() error {
		logger.Info("starting ops server", logger.Fields{"addr": cfg.Ops.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func openLedger(ctx context.Context, cfg config.StorageConfig) (domain.LedgerRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewLedgerRepository(), func() {}, nil

	case config.DriverBadger:
		repo, err := badgerstore.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil

	case config.DriverSQLite:
		repo, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewLedgerRepository(db), func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
