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

	"github.com/spf13/cobra"

	"github.com/quaelen/pannier"
	"github.com/quaelen/pannier/config"
	"github.com/quaelen/pannier/fsstore"
	pannierhttp "github.com/quaelen/pannier/http"
	"github.com/quaelen/pannier/memstore"
	"github.com/quaelen/pannier/sqlstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Pannier HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5710, "HTTP server port")
	serveCmd.Flags().String("public-url", "", "externally reachable base URL for share links")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.Load(configFiles(cmd), cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()
	slog.Info("store ready", "backend", cfg.Store.Backend)

	service := pannier.NewService(store, pannier.ServiceConfig{
		RestrictTypes: cfg.Upload.RestrictTypes,
	})

	gate := pannier.NewGate(cfg.Auth.Username, cfg.Auth.Password)

	var limiter pannierhttp.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = pannier.NewLimiter(store, pannier.LimiterConfig{
			Window: cfg.RateLimit.Window,
			Max: map[string]int{
				"upload": cfg.RateLimit.MaxUpload,
				"delete": cfg.RateLimit.MaxDelete,
				"browse": cfg.RateLimit.MaxBrowse,
			},
		})
	}

	handlerConfig := pannierhttp.HandlerConfig{
		PublicURL:      cfg.Server.PublicURL,
		MaxUploadBytes: cfg.Upload.MaxSize,
		Auth: pannierhttp.AuthConfig{
			Enabled:      cfg.Auth.Enabled,
			Mode:         pannierhttp.AuthMode(cfg.Auth.Mode),
			CookieName:   cfg.Auth.CookieName,
			CookieMaxAge: cfg.Auth.CookieMaxAge,
		},
	}

	handler := pannierhttp.NewHandler(&handlerConfig, service, gate, limiter)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "backend", cfg.Store.Backend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func configFiles(cmd *cobra.Command) []string {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return nil
	}
	return []string{configFile}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (pannier.ObjectStore, func(), error) {
	switch cfg.Backend {
	case "memory":
		return memstore.New(), func() {}, nil

	case "fs":
		var opts []fsstore.Option
		if cfg.Compress {
			opts = append(opts, fsstore.WithCompression())
		}
		store, err := fsstore.Open(cfg.Path, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case "sqlite":
		store, err := sqlstore.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case "postgres":
		store, err := sqlstore.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
