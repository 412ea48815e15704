package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"routekit/internal/auth"
	"routekit/internal/config"
	"routekit/internal/solver"
	"routekit/internal/store"
)

type Server struct {
	Store  store.Store
	Solver *solver.Service
	Auth   *auth.Verifier
	Broker EventBroker
	Logger *slog.Logger

	cfg      config.Config
	validate *validator.Validate
	limiter  *clientLimiter
}

// NewServer assembles a Server around already-constructed dependencies.
func NewServer(cfg config.Config, st store.Store, broker EventBroker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if broker == nil {
		broker = NewBroker()
	}
	return &Server{
		Store:    st,
		Solver:   solver.New(st, cfg.Solver, cfg.HTTP.SolveTimeout, logger),
		Auth:     auth.NewVerifier(cfg.Auth),
		Broker:   broker,
		Logger:   logger,
		cfg:      cfg,
		validate: newValidator(),
		limiter:  newClientLimiter(cfg.Rate.RPS, cfg.Rate.Burst),
	}
}

// Open selects the store and broker from cfg: Postgres when DATABASE_URL is
// set (in-memory otherwise) and Redis Pub/Sub when REDIS_URL is set. The
// returned cleanup releases both.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Info("using in-memory store")
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pg.Close)
		if cfg.DBMigrate {
			if err := pg.Migrate(ctx); err != nil {
				cleanup()
				return nil, func() {}, err
			}
		}
		st = pg
	}

	var broker EventBroker = NewBroker()
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL, logger)
		if err == nil {
			err = rb.Ping(ctx)
		}
		if err != nil {
			// events stay local to this instance
			logger.Warn("redis broker unavailable, using in-process broker", "err", err)
		} else {
			closers = append(closers, rb.Close)
			broker = rb
		}
	}
	return NewServer(cfg, st, broker, logger), cleanup, nil
}
