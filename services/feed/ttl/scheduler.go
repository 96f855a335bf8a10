// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ttl runs the optional retention purge for expired stories.
//
// Expired stories are hidden from every listing as soon as they expire,
// whether or not the purge runs. The purge only reclaims memory: each cycle
// deletes stories that expired more than Retention ago.
package ttl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/clock"
	"github.com/AleutianAI/AleutianFeed/services/feed/telemetry"
)

// =============================================================================
// Interfaces
// =============================================================================

// Purger deletes stories whose expiry is at or before cutoff.
// *store.Store implements it.
type Purger interface {
	PurgeExpiredStories(cutoff time.Time) (int, error)
}

// Scheduler manages the background purge loop.
type Scheduler interface {
	// Start launches the loop. It fails if the loop is already running.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for the current cycle. Safe to call
	// more than once.
	Stop() error

	// RunNow runs one purge cycle immediately.
	RunNow(ctx context.Context) (PurgeResult, error)
}

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler is already running")

// =============================================================================
// Configuration
// =============================================================================

// SchedulerConfig holds configuration for the purge scheduler.
//
// # Fields
//
//   - Interval: How often to run a purge cycle. Default: 1 hour.
//   - Retention: How long expired stories are kept before they are
//     deleted. Default: 24 hours.
type SchedulerConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// DefaultSchedulerConfig returns an hourly purge with one day of retention.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:  time.Hour,
		Retention: 24 * time.Hour,
	}
}

// PurgeResult summarizes one purge cycle.
type PurgeResult struct {
	Cutoff    time.Time
	Removed   int
	StartTime time.Time
	EndTime   time.Time
}

// DurationMs returns the cycle duration in milliseconds.
func (r PurgeResult) DurationMs() int64 {
	return r.EndTime.Sub(r.StartTime).Milliseconds()
}

// =============================================================================
// Scheduler Implementation
// =============================================================================

// purgeScheduler implements Scheduler with the ticker + done channel
// pattern.
//
// # Thread Safety
//
// All public methods are thread-safe. mu protects the running state.
type purgeScheduler struct {
	purger  Purger
	clock   clock.Clock
	logger  *slog.Logger
	metrics *telemetry.Metrics
	config  SchedulerConfig

	mu      sync.Mutex
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// NewScheduler creates a purge scheduler.
//
// # Inputs
//
//   - purger: The story store.
//   - clk: Clock used to compute the cutoff. nil means the system clock.
//   - logger: Logger for cycle summaries. nil means slog.Default().
//   - metrics: Optional; purged stories are counted when set.
//   - config: Interval and retention. Zero fields take the defaults.
//
// # Examples
//
//	sched := ttl.NewScheduler(st, clock.System{}, logger, metrics, ttl.SchedulerConfig{
//	    Interval:  10 * time.Minute,
//	    Retention: 6 * time.Hour,
//	})
//	if err := sched.Start(ctx); err != nil {
//	    return err
//	}
//	defer sched.Stop()
func NewScheduler(purger Purger, clk clock.Clock, logger *slog.Logger, metrics *telemetry.Metrics, config SchedulerConfig) Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Retention < 0 {
		config.Retention = defaults.Retention
	}
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &purgeScheduler{
		purger:  purger,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		config:  config,
	}
}

// Start begins the background purge loop. The first cycle runs
// immediately; later cycles run every Interval until Stop is called or
// ctx is cancelled.
func (s *purgeScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	s.logger.Info("story purge scheduler starting",
		"interval", s.config.Interval.String(),
		"retention", s.config.Retention.String(),
	)

	go s.runLoop(ctx, s.done, s.stopped)
	return nil
}

// Stop signals the loop to exit and waits for it.
func (s *purgeScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.done)
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped
	s.logger.Info("story purge scheduler stopped")
	return nil
}

// RunNow runs one purge cycle without affecting the schedule.
func (s *purgeScheduler) RunNow(ctx context.Context) (PurgeResult, error) {
	return s.runCycle(ctx)
}

// =============================================================================
// Internal Methods
// =============================================================================

func (s *purgeScheduler) runLoop(ctx context.Context, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.executeCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("story purge loop exiting (context cancelled)")
			return
		case <-done:
			return
		case <-ticker.C:
			s.executeCycle(ctx)
		}
	}
}

// executeCycle runs a cycle and logs the outcome. Errors never stop the
// loop.
func (s *purgeScheduler) executeCycle(ctx context.Context) {
	result, err := s.runCycle(ctx)
	if err != nil {
		s.logger.Error("story purge cycle failed", "error", err)
		return
	}

	if result.Removed > 0 {
		s.logger.Info("story purge cycle completed",
			"removed", result.Removed,
			"cutoff", result.Cutoff,
			"duration_ms", result.DurationMs(),
		)
	} else {
		s.logger.Debug("story purge cycle completed (nothing to remove)")
	}
}

func (s *purgeScheduler) runCycle(ctx context.Context) (PurgeResult, error) {
	result := PurgeResult{StartTime: s.clock.Now()}
	result.Cutoff = result.StartTime.Add(-s.config.Retention)

	if err := ctx.Err(); err != nil {
		return result, err
	}

	removed, err := s.purger.PurgeExpiredStories(result.Cutoff)
	if err != nil {
		return result, fmt.Errorf("purge expired stories: %w", err)
	}
	result.Removed = removed
	result.EndTime = s.clock.Now()

	s.metrics.RecordStoriesPurged(ctx, removed)
	return result, nil
}
