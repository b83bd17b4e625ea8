package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/codetype/internal/config"
	"github.com/verte-zerg/codetype/internal/logging"
	"github.com/verte-zerg/codetype/internal/seed"
	"github.com/verte-zerg/codetype/internal/server"
	"github.com/verte-zerg/codetype/internal/service"
	"github.com/verte-zerg/codetype/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadServerConfig(config.DefaultConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Dir: cfg.LogDir, Console: true})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	var st *store.Store
	if cfg.DatabaseDriver == "sqlite" {
		st, err = store.Open(cfg.DatabaseURL)
	} else {
		st, err = store.OpenDriver(cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("Failed to close db", zap.Error(cerr))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inserted, err := seed.Seed(ctx, st)
	if err != nil {
		return fmt.Errorf("failed to seed db: %w", err)
	}
	if inserted > 0 {
		log.Info("Seeded default snippets", zap.Int("count", inserted))
	}

	srv := server.New(st, service.NewResults(st), log, server.Options{
		SessionSecret:  cfg.SessionSecret,
		Production:     cfg.Production,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		LiveSessionTTL: cfg.SessionTTL,
	})
	return srv.Run(ctx, ":"+cfg.Port)
}
