package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bookstore/internal/util"
	"bookstore/services/bookstore/internal/app"
	"bookstore/services/bookstore/internal/config"
	"bookstore/services/bookstore/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, config.Path())
	stop()
	if err != nil {
		slog.Error("bookstore exited", "err", err)
		os.Exit(1)
	}
}

// run serves until ctx is done. Deferred cleanup has finished by the time
// it returns, so main can exit with a status.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Durations were validated by Load.
	jwtTTL, _ := config.ParseDuration("jwtTTL", cfg.JWTTTL)
	jwtLeeway, _ := config.ParseDuration("jwtLeeway", cfg.JWTLeeway)
	cacheTTL, _ := config.ParseDuration("bookCacheTTL", cfg.BookCacheTTL)
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseDriver: cfg.DatabaseDriver,
		DatabaseURL:    cfg.DatabaseURL,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		BookCacheTTL:   cacheTTL,
		JWTKey:         cfg.JWTKey,
		JWTIssuer:      cfg.JWTIssuer,
		JWTAudience:    cfg.JWTAudience,
		JWTTTL:         jwtTTL,
		JWTLeeway:      jwtLeeway,
	})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer func() {
		if err := appCore.Close(); err != nil {
			logger.Warn("close app", "err", err)
		}
	}()

	httpServer, err := server.New(server.Config{
		App:            appCore,
		TrustedProxies: trusted,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpServer.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("bookstore server listening", "addr", addr, "database_driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
