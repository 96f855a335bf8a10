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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Feed.PreviewSize)
	assert.Equal(t, "like", cfg.Feed.DefaultReaction)
	assert.Equal(t, 24*time.Hour, cfg.Feed.StoryLifetime)
	assert.Zero(t, cfg.Stories.Retention, "expired stories are kept by default")
	assert.Len(t, cfg.Seed.Users, 5)
	assert.Equal(t, "alexjohnson", cfg.Seed.Users[0].Username)
}

func TestCreateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feed.yaml")
	require.NoError(t, createDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg FeedConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, CurrentConfigVersion, cfg.Meta.Version)
	assert.Equal(t, 24*time.Hour, cfg.Feed.StoryLifetime, "durations round trip as strings")
	assert.Contains(t, string(data), "story_lifetime: 24h0m0s")
}

func TestLoad_FirstRunCreatesFile(t *testing.T) {
	t.Setenv("FEED_PORT", "")
	t.Setenv("FEED_LOG_LEVEL", "")
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	path := filepath.Join(t.TempDir(), "feed.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestParse_PartialFileKeepsDefaults(t *testing.T) {
	data := []byte(`
server:
  port: 8080
stories:
  retention: 6h
  purge_interval: 15m
`)
	cfg, err := Parse(data, noEnv)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, 6*time.Hour, cfg.Stories.Retention)
	assert.Equal(t, 15*time.Minute, cfg.Stories.PurgeInterval)
	assert.Equal(t, 2, cfg.Feed.PreviewSize)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("server: [unclosed"), noEnv)
	assert.Error(t, err)
}

func TestParse_EnvOverrides(t *testing.T) {
	cfg, err := Parse(nil, envMap(map[string]string{
		"FEED_PORT":                   "9090",
		"FEED_LOG_LEVEL":              "debug",
		"OTEL_TRACES_EXPORTER":        "otlp",
		"OTEL_METRICS_EXPORTER":       "none",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4317",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "otlp", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "none", cfg.Telemetry.MetricExporter)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
}

func TestParse_BadPortEnv(t *testing.T) {
	_, err := Parse(nil, envMap(map[string]string{"FEED_PORT": "http"}))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FeedConfig)
	}{
		{"port zero", func(c *FeedConfig) { c.Server.Port = 0 }},
		{"port too high", func(c *FeedConfig) { c.Server.Port = 70000 }},
		{"gin mode", func(c *FeedConfig) { c.Server.GinMode = "loud" }},
		{"negative preview", func(c *FeedConfig) { c.Feed.PreviewSize = -1 }},
		{"negative audit capacity", func(c *FeedConfig) { c.Audit.Capacity = -5 }},
		{"unknown log format", func(c *FeedConfig) { c.Logging.Format = "xml" }},
		{"sample ratio above one", func(c *FeedConfig) { c.Telemetry.SampleRatio = 1.5 }},
		{"no default reaction", func(c *FeedConfig) { c.Feed.DefaultReaction = "" }},
		{"zero lifetime", func(c *FeedConfig) { c.Feed.StoryLifetime = 0 }},
		{"retention without interval", func(c *FeedConfig) {
			c.Stories.Retention = time.Hour
			c.Stories.PurgeInterval = 0
		}},
		{"rate without burst", func(c *FeedConfig) { c.RateLimit.Burst = 0 }},
		{"trace exporter", func(c *FeedConfig) { c.Telemetry.TraceExporter = "prometheus" }},
		{"metric exporter", func(c *FeedConfig) { c.Telemetry.MetricExporter = "otlp" }},
		{"log level", func(c *FeedConfig) { c.Logging.Level = "chatty" }},
		{"bcrypt cost", func(c *FeedConfig) { c.Security.BcryptCost = 2 }},
		{"seed without password", func(c *FeedConfig) { c.Seed.Users[1].Password = "" }},
		{"seed duplicate", func(c *FeedConfig) { c.Seed.Users[1].Username = c.Seed.Users[0].Username }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidate_RateLimitDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = RateLimitConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, WriteDefault(path, false))

	assert.ErrorIs(t, WriteDefault(path, false), ErrExists)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 1\n"), 0644))
	require.NoError(t, WriteDefault(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port: 5000")
}

func TestTelemetryOptions(t *testing.T) {
	cfg := DefaultConfig()
	tel := cfg.TelemetryOptions("1.2.3")
	assert.Equal(t, "1.2.3", tel.ServiceVersion)
	assert.Equal(t, cfg.Telemetry.ServiceName, tel.ServiceName)
	assert.Equal(t, cfg.Telemetry.MetricExporter, tel.MetricExporter)
	assert.Equal(t, 1.0, tel.SampleRatio)
}
