// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides OpenTelemetry-based observability for the feed
// service.
//
// Init configures the global TracerProvider and MeterProvider from a Config.
// Traces go to an OTLP collector, stdout or nowhere; metrics are exposed
// for Prometheus scraping at /metrics from a registry owned by the
// returned Providers, or printed to stdout.
//
// # Usage
//
//	providers, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer providers.Shutdown(context.Background())
//
//	metrics, err := telemetry.NewMetrics(providers.Meter("feed"))
//
// # Logging
//
// LoggerWithTrace adds trace_id and span_id to a slog.Logger so request
// logs can be joined with their traces.
//
// # Thread Safety
//
// All exported functions are safe for concurrent use after Init returns.
package telemetry
