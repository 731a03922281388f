package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"bookstore/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	BookCacheTTL   time.Duration
	JWTKey         string
	JWTIssuer      string
	JWTAudience    string
	JWTTTL         time.Duration
	// JWTLeeway is used as given; zero disables clock-skew tolerance.
	JWTLeeway time.Duration

	// Store and Sessions override the stores built from the fields above.
	Store    store.Store
	Sessions store.SessionStore
}

// App wires storage and token issuing behind the auth and book operations.
type App struct {
	store    store.Store
	sessions store.SessionStore
	closers  []io.Closer
}

// New constructs the application. Without an injected Store it opens the
// configured database and, when RedisAddr is set, fronts it with a Redis
// book cache.
func New(cfg Config) (*App, error) {
	a := &App{}

	dataStore := cfg.Store
	if dataStore == nil {
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, errors.New("database URL required")
		}
		gormStore, err := store.NewGormStore(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init %s store: %w", cfg.DatabaseDriver, err)
		}
		a.closers = append(a.closers, gormStore)
		dataStore = gormStore

		if strings.TrimSpace(cfg.RedisAddr) != "" {
			cache, err := store.NewRedisBookCache(gormStore, cfg.RedisAddr, cfg.RedisPassword, cfg.BookCacheTTL)
			if err != nil {
				_ = a.Close()
				return nil, fmt.Errorf("init book cache: %w", err)
			}
			a.closers = append(a.closers, cache)
			dataStore = cache
			slog.Info("book cache enabled", "redis_addr", cfg.RedisAddr)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.JWTKey) == "" {
			_ = a.Close()
			return nil, errors.New("jwtKey is required")
		}
		sessionStore = store.NewJWTSessionStoreWithOptions(cfg.JWTKey, cfg.JWTTTL, store.JWTOptions{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   cfg.JWTLeeway,
		})
	}

	a.store = dataStore
	a.sessions = sessionStore
	return a, nil
}

// Close releases resources opened by New, most recent first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Authenticate resolves a bearer token to the username it was issued for.
func (a *App) Authenticate(token string) (string, bool, error) {
	return a.sessions.GetUsernameByToken(token)
}
