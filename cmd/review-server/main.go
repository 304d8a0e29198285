package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tsunayoshi21/Labeling-app/internal/api"
	"github.com/tsunayoshi21/Labeling-app/internal/config"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "review-server",
		Usage: "reference Task API for the OCR review client",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "listen port (overrides PORT)"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database path (overrides LABELING_DB_PATH)"},
			&cli.StringFlag{Name: "fixtures", Usage: "YAML fixtures to seed at startup (overrides LABELING_FIXTURES)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:      "seed",
				Usage:     "load a fixtures file into the database and exit",
				ArgsUsage: "<fixtures.yaml>",
				Action:    seed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "review-server: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides
func loadConfig(c *cli.Context) (*config.ServerConfig, *slog.Logger, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("fixtures") {
		cfg.FixturePath = c.String("fixtures")
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func seed(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		path = cfg.FixturePath
	}
	if path == "" {
		return fmt.Errorf("no fixtures file given")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return seedFile(db, path, logger)
}

func seedFile(db *store.DB, path string, logger *slog.Logger) error {
	fx, err := store.LoadFixtures(path)
	if err != nil {
		return err
	}
	res, err := store.Seed(store.NewUserStore(db), store.NewAnnotationStore(db), fx)
	if err != nil {
		return err
	}
	logger.Info("fixtures loaded", "path", path, "users", res.Users, "images", res.Images, "assignments", res.Assignments)
	return nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Stores
	users := store.NewUserStore(db)
	annotations := store.NewAnnotationStore(db)
	tokens := store.NewTokenStore(db, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	if cfg.AdminPassword != "" {
		if _, created, err := users.EnsureUser(cfg.AdminUsername, cfg.AdminPassword, "admin"); err != nil {
			return fmt.Errorf("ensure admin user: %w", err)
		} else if created {
			logger.Info("admin user created", "username", cfg.AdminUsername)
		}
	}

	if cfg.FixturePath != "" {
		if err := seedFile(db, cfg.FixturePath, logger); err != nil {
			return fmt.Errorf("seed fixtures: %w", err)
		}
	}

	if n, err := tokens.PurgeExpired(); err != nil {
		logger.Warn("failed to purge expired tokens", "error", err)
	} else if n > 0 {
		logger.Info("purged expired tokens", "count", n)
	}

	// Router
	router := api.NewRouter(db, users, annotations, tokens, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("review server starting", "addr", addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
