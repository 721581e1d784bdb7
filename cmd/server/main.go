package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unova-mun/unova-server/internal/api"
	"github.com/unova-mun/unova-server/internal/auth"
	"github.com/unova-mun/unova-server/internal/config"
	"github.com/unova-mun/unova-server/internal/core"
	"github.com/unova-mun/unova-server/internal/logger"
	"github.com/unova-mun/unova-server/internal/store"
)

type flags struct {
	port        string
	databaseURL string
}

func main() {
	var f flags

	rootCmd := &cobra.Command{
		Use:          "unova-server",
		Short:        "UNova API server for Model UN delegates",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	rootCmd.PersistentFlags().StringVar(&f.port, "port", "", "HTTP port (overrides HTTP_PORT)")
	rootCmd.PersistentFlags().StringVar(&f.databaseURL, "database-url", "", "database file or postgres:// URL (overrides DATABASE_URL)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), f)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(f flags) (*config.Config, *logger.Logger, error) {
	cfg, envFileLoaded, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if f.port != "" {
		cfg.HTTPPort = f.port
	}
	if f.databaseURL != "" {
		cfg.DatabaseURL = f.databaseURL
	}

	log, err := logger.New(!cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if !envFileLoaded {
		log.Debug("No .env file found, using environment variables")
	}
	return cfg, log, nil
}

func runMigrate(ctx context.Context, f flags) error {
	cfg, log, err := loadConfig(f)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Open applies the schema.
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Migration failed", "error", err)
		return err
	}
	defer db.Close()
	log.Info("Database schema is up to date")
	return nil
}

func runServe(ctx context.Context, f flags) error {
	cfg, log, err := loadConfig(f)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("Service starting", "env", cfg.AppEnv, "level", cfg.LogLevel)

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to initialize database", "error", err)
		return err
	}
	defer db.Close()

	completion, err := core.NewCompletionClient(ctx, core.CompletionOptions{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GenerationTimeout,
	}, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "error", err)
		return err
	}
	defer completion.Close()

	apiHandler := api.NewAPIHandler(api.Services{
		Chat:      core.NewChatService(db, completion, log),
		Documents: core.NewDocumentService(db),
		Auth:      core.NewAuthService(db, auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL), log),
		DB:        db,
	}, log, !cfg.IsDevelopment())
	router := api.NewRouter(apiHandler, api.NewChatRateLimiter(cfg.ChatRatePerMinute))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerationTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not listen on %s: %w", srv.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		return pruneSessions(gctx, db, cfg.SessionPruneInterval, log)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", "error", err)
		return err
	}
	log.Info("Server exiting gracefully")
	return nil
}

func pruneSessions(ctx context.Context, db *store.Store, interval time.Duration, log *logger.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := db.PruneSessions(ctx)
			if err != nil {
				log.Warn("Session pruning failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Debug("Pruned expired sessions", "count", removed)
			}
		}
	}
}
