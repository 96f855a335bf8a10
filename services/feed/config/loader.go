// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AleutianAI/AleutianFeed/pkg/logging"
	"github.com/AleutianAI/AleutianFeed/services/feed/telemetry"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// ErrExists is returned by WriteDefault when the file is already present
// and overwrite was not requested.
var ErrExists = errors.New("config file already exists")

// ErrInvalid wraps every Validate failure.
var ErrInvalid = errors.New("invalid config")

// DefaultPath returns ~/.aleutian/feed.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".aleutian", "feed.yaml"), nil
}

// Load reads the config at path, creating it with defaults on first run.
//
// # Description
//
// Keys missing from the file keep their default values. Environment
// overrides are applied after parsing and the result is validated.
//
// # Inputs
//
//   - path: Config file location. Empty means DefaultPath().
//
// # Outputs
//
//   - FeedConfig: The effective configuration.
//   - error: Read, parse or validation failure.
func Load(path string) (FeedConfig, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return FeedConfig{}, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return FeedConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FeedConfig{}, fmt.Errorf("failed to read the config file %w", err)
	}
	return Parse(data, os.Getenv)
}

// Parse decodes data over DefaultConfig, applies overrides from getenv and
// validates the result.
func Parse(data []byte, getenv func(string) string) (FeedConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FeedConfig{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	if getenv != nil {
		if err := applyEnv(&cfg, getenv); err != nil {
			return FeedConfig{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return FeedConfig{}, err
	}
	return cfg, nil
}

// WriteDefault writes DefaultConfig to path. An existing file is left
// alone unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	return createDefault(path)
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnv overrides a handful of keys from the environment.
func applyEnv(cfg *FeedConfig, getenv func(string) string) error {
	if v := getenv("FEED_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FEED_PORT=%q is not a number", ErrInvalid, v)
		}
		cfg.Server.Port = port
	}
	if v := getenv("FEED_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := getenv("OTEL_TRACES_EXPORTER"); v != "" {
		cfg.Telemetry.TraceExporter = v
	}
	if v := getenv("OTEL_METRICS_EXPORTER"); v != "" {
		cfg.Telemetry.MetricExporter = v
	}
	if v := getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = strings.TrimPrefix(strings.TrimPrefix(v, "http://"), "https://")
	}
	return nil
}

// Validate checks value ranges. All problems are reported together.
func (c FeedConfig) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		fail("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		fail("server.gin_mode %q must be debug, release or test", c.Server.GinMode)
	}
	if c.Server.ShutdownTimeout < 0 {
		fail("server.shutdown_timeout must not be negative")
	}
	if c.Feed.PreviewSize < 0 {
		fail("feed.preview_size must not be negative")
	}
	if c.Feed.DefaultReaction == "" {
		fail("feed.default_reaction is required")
	}
	if c.Feed.StoryLifetime <= 0 {
		fail("feed.story_lifetime must be positive")
	}
	if c.Stories.Retention < 0 {
		fail("stories.retention must not be negative")
	}
	if c.Stories.Retention > 0 && c.Stories.PurgeInterval <= 0 {
		fail("stories.purge_interval must be positive when retention is set")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		fail("rate_limit values must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		fail("rate_limit.burst must be positive when requests_per_second is set")
	}
	if !knownExporter(c.Telemetry.TraceExporter, telemetry.ExporterOTLP) {
		fail("telemetry.trace_exporter %q is not supported", c.Telemetry.TraceExporter)
	}
	if !knownExporter(c.Telemetry.MetricExporter, telemetry.ExporterPrometheus) {
		fail("telemetry.metric_exporter %q is not supported", c.Telemetry.MetricExporter)
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		fail("logging.format: %v", err)
	}
	if r := c.Telemetry.SampleRatio; r < 0 || r > 1 {
		fail("telemetry.sample_ratio %v outside [0, 1]", r)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		fail("logging.level: %v", err)
	}
	if cost := c.Security.BcryptCost; cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		fail("security.bcrypt_cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Audit.Capacity < 0 {
		fail("audit.capacity must not be negative")
	}

	seen := make(map[string]bool, len(c.Seed.Users))
	for i, u := range c.Seed.Users {
		if u.Username == "" || u.Password == "" {
			fail("seed.users[%d] needs a username and a password", i)
			continue
		}
		if seen[u.Username] {
			fail("seed.users[%d] repeats username %q", i, u.Username)
		}
		seen[u.Username] = true
	}

	return errors.Join(errs...)
}

// knownExporter accepts none, stdout and the one network exporter a signal
// supports.
func knownExporter(name, network string) bool {
	switch name {
	case telemetry.ExporterNone, telemetry.ExporterStdout, network:
		return true
	}
	return false
}
