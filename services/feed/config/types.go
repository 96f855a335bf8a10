// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the feed service configuration from YAML.
package config

import (
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/telemetry"
	"golang.org/x/crypto/bcrypt"
)

// CurrentConfigVersion is written into new config files.
const CurrentConfigVersion = "1"

// FeedConfig is the root of feed.yaml.
type FeedConfig struct {
	Meta      MetaConfig      `yaml:"meta"`
	Server    ServerConfig    `yaml:"server"`
	Feed      FeedOptions     `yaml:"feed"`
	Stories   StoriesConfig   `yaml:"stories"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Seed      SeedConfig      `yaml:"seed"`
	Security  SecurityConfig  `yaml:"security"`
	Audit     AuditConfig     `yaml:"audit"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	GinMode         string        `yaml:"gin_mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// FeedOptions shapes projections and defaults applied to requests.
type FeedOptions struct {
	// PreviewSize is the number of comments shown under each feed entry.
	PreviewSize int `yaml:"preview_size"`

	// DefaultReaction is used when a toggle request carries no type.
	DefaultReaction string `yaml:"default_reaction"`

	// StoryLifetime is added to the creation time when a story request
	// omits expiresAt.
	StoryLifetime time.Duration `yaml:"story_lifetime"`
}

// StoriesConfig controls removal of expired stories. A zero Retention
// keeps expired stories forever; they are only hidden.
type StoriesConfig struct {
	Retention     time.Duration `yaml:"retention"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

// RateLimitConfig bounds mutating requests. A zero RequestsPerSecond
// disables the limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name"`
	Environment    string  `yaml:"environment"`
	TraceExporter  string  `yaml:"trace_exporter"`
	MetricExporter string  `yaml:"metric_exporter"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	OTLPInsecure   bool    `yaml:"otlp_insecure"`
	SampleRatio    float64 `yaml:"sample_ratio"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`

	// Format is "auto", "text" or "json" for console output.
	Format string `yaml:"format"`

	// Dir enables daily JSON log files. Empty disables them.
	Dir string `yaml:"dir"`
}

// SeedConfig lists users created when the service starts.
type SeedConfig struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is one sample account. Password is stored in plain text in the
// config file and hashed on creation.
type SeedUser struct {
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	Avatar     string `yaml:"avatar"`
	CoverImage string `yaml:"cover_image"`
}

type SecurityConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// AuditConfig sizes the in-memory audit trail. Zero disables auditing.
type AuditConfig struct {
	Capacity int `yaml:"capacity"`
}

// TelemetryOptions converts the telemetry section to a telemetry.Config.
func (c FeedConfig) TelemetryOptions(version string) telemetry.Config {
	return telemetry.Config{
		ServiceName:    c.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    c.Telemetry.Environment,
		TraceExporter:  c.Telemetry.TraceExporter,
		MetricExporter: c.Telemetry.MetricExporter,
		OTLPEndpoint:   c.Telemetry.OTLPEndpoint,
		OTLPInsecure:   c.Telemetry.OTLPInsecure,
		SampleRatio:    c.Telemetry.SampleRatio,
	}
}

func avatar(photo string) string {
	return "https://images.unsplash.com/" + photo + "?ixlib=rb-1.2.1&auto=format&fit=crop&w=120&h=120&q=80"
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() FeedConfig {
	tel := telemetry.DefaultConfig()
	return FeedConfig{
		Meta: MetaConfig{Version: CurrentConfigVersion},
		Server: ServerConfig{
			Port:            5000,
			GinMode:         "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Feed: FeedOptions{
			PreviewSize:     2,
			DefaultReaction: "like",
			StoryLifetime:   24 * time.Hour,
		},
		Stories: StoriesConfig{
			Retention:     0,
			PurgeInterval: time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    tel.ServiceName,
			Environment:    "development",
			TraceExporter:  tel.TraceExporter,
			MetricExporter: tel.MetricExporter,
			OTLPEndpoint:   tel.OTLPEndpoint,
			OTLPInsecure:   tel.OTLPInsecure,
			SampleRatio:    tel.SampleRatio,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
			Dir:    "",
		},
		Seed: SeedConfig{
			Users: []SeedUser{
				{Username: "alexjohnson", Password: "password123", Name: "Alex Johnson", Avatar: avatar("photo-1535713875002-d1d0cf377fde")},
				{Username: "sarawilson", Password: "password123", Name: "Sara Wilson", Avatar: avatar("photo-1494790108377-be9c29b29330")},
				{Username: "jameslee", Password: "password123", Name: "James Lee", Avatar: avatar("photo-1539571696357-5a69c17a67c6")},
				{Username: "elenaray", Password: "password123", Name: "Elena Ray", Avatar: avatar("photo-1524504388940-b1c1722653e1")},
				{Username: "danielkim", Password: "password123", Name: "Daniel Kim", Avatar: avatar("photo-1507003211169-0a1dd7228f2d")},
			},
		},
		Security: SecurityConfig{
			BcryptCost: bcrypt.DefaultCost,
		},
		Audit: AuditConfig{
			Capacity: 1000,
		},
	}
}
