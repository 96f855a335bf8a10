// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package feed wires the feed service together.
//
// A Service owns one store, the projector over it, the HTTP router, the
// optional expired-story purge scheduler and the telemetry providers.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	svc, err := feed.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	return svc.Run(ctx)
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/audit"
	"github.com/AleutianAI/AleutianFeed/services/feed/clock"
	"github.com/AleutianAI/AleutianFeed/services/feed/config"
	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/AleutianAI/AleutianFeed/services/feed/handlers"
	"github.com/AleutianAI/AleutianFeed/services/feed/projector"
	"github.com/AleutianAI/AleutianFeed/services/feed/routes"
	"github.com/AleutianAI/AleutianFeed/services/feed/store"
	"github.com/AleutianAI/AleutianFeed/services/feed/telemetry"
	"github.com/AleutianAI/AleutianFeed/services/feed/ttl"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Version is reported in telemetry resources and by the CLI.
var Version = "dev"

// =============================================================================
// Interface Definition
// =============================================================================

// Service is the feed service lifecycle.
//
// # Thread Safety
//
// Router, Store and Addr are safe for concurrent use. Run is called at most
// once.
type Service interface {
	// Run serves HTTP and runs the purge scheduler until ctx is cancelled
	// or the server fails, then shuts everything down.
	Run(ctx context.Context) error

	// Router returns the configured gin engine for testing.
	Router() *gin.Engine

	// Store returns the feed store.
	Store() *store.Store

	// Addr returns the listening address once Run has bound it, else nil.
	Addr() net.Addr

	// Close releases resources without running. Run calls it on return.
	Close() error
}

// Option configures New.
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock overrides the store clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

type service struct {
	cfg    config.FeedConfig
	logger *slog.Logger

	store     *store.Store
	projector *projector.Projector
	router    *gin.Engine
	scheduler ttl.Scheduler

	telemetryShutdown func(context.Context) error

	mu        sync.Mutex
	addr      net.Addr
	closeOnce sync.Once
	closeErr  error
}

// =============================================================================
// Construction
// =============================================================================

// New builds a Service from cfg.
//
// # Description
//
// Initializes telemetry, creates the store and seeds the configured users,
// then builds the projector, handlers and router. The purge scheduler is
// created only when cfg.Stories.Retention is positive.
//
// # Outputs
//
//   - Service: Ready to Run.
//   - error: Telemetry setup or seeding failed. Nothing is left running.
func New(cfg config.FeedConfig, logger *slog.Logger, opts ...Option) (Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{clock: clock.System{}}
	for _, opt := range opts {
		opt(&o)
	}

	gin.SetMode(cfg.Server.GinMode)

	providers, err := telemetry.Init(context.Background(), cfg.TelemetryOptions(Version))
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	metrics, err := telemetry.NewMetrics(providers.Meter("feed"))
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	st := store.New(
		store.WithClock(o.clock),
		store.WithLogger(logger.With("component", "store")),
		store.WithBcryptCost(cfg.Security.BcryptCost),
	)

	s := &service{
		cfg:               cfg,
		logger:            logger,
		store:             st,
		telemetryShutdown: providers.Shutdown,
	}

	if err := s.seed(); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.projector = projector.New(st,
		projector.WithPreviewSize(cfg.Feed.PreviewSize),
		projector.WithLogger(logger.With("component", "projector")),
	)

	var trail audit.Logger = audit.Nop{}
	if cfg.Audit.Capacity > 0 {
		trail = audit.NewMemory(cfg.Audit.Capacity, o.clock.Now)
	}

	h := handlers.New(st, s.projector, metrics, logger, handlers.Options{
		DefaultReaction: cfg.Feed.DefaultReaction,
		StoryLifetime:   cfg.Feed.StoryLifetime,
		Audit:           trail,
	})

	s.router = routes.NewRouter(h, routes.Options{
		ServiceName:       cfg.Telemetry.ServiceName,
		Logger:            logger,
		Metrics:           metrics,
		MetricsHandler:    providers.MetricsHandler(),
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	if cfg.Stories.Retention > 0 {
		s.scheduler = ttl.NewScheduler(st, o.clock, logger.With("component", "ttl"), metrics, ttl.SchedulerConfig{
			Interval:  cfg.Stories.PurgeInterval,
			Retention: cfg.Stories.Retention,
		})
	}

	return s, nil
}

// seed creates the configured sample users in order.
func (s *service) seed() error {
	for _, u := range s.cfg.Seed.Users {
		_, err := s.store.CreateUser(datatypes.NewUser{
			Username:   u.Username,
			Password:   u.Password,
			Name:       u.Name,
			Avatar:     u.Avatar,
			CoverImage: u.CoverImage,
		})
		if err != nil {
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}
	if n := len(s.cfg.Seed.Users); n > 0 {
		s.logger.Info("Seeded users", "count", n)
	}
	return nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
//
// # Description
//
// The server and the purge scheduler run in one errgroup. When ctx is
// cancelled the server drains in-flight requests for up to
// cfg.Server.ShutdownTimeout, the scheduler stops and the store closes.
//
// # Outputs
//
//   - error: nil after a clean shutdown, otherwise the first failure.
func (s *service) Run(ctx context.Context) error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Warn("Service close error", "error", err)
		}
	}()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Server.Port, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting feed server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if s.scheduler != nil {
		if err := s.scheduler.Start(gctx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("start purge scheduler: %w", err)
		}
		s.logger.Info("Story purge scheduler started",
			"interval", s.cfg.Stories.PurgeInterval.String(),
			"retention", s.cfg.Stories.Retention.String())
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down feed server")

		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if s.scheduler != nil {
			if err := s.scheduler.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop purge scheduler: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) Store() *store.Store {
	return s.store
}

func (s *service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close closes the store and flushes telemetry. Safe to call more than
// once.
func (s *service) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
		if s.telemetryShutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.telemetryShutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
