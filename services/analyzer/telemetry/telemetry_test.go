// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := DefaultConfig()

		if cfg.ServiceName != "cscout" {
			t.Errorf("ServiceName = %q, want cscout", cfg.ServiceName)
		}
		if cfg.TraceExporter != "none" {
			t.Errorf("TraceExporter = %q, want none", cfg.TraceExporter)
		}
		if cfg.MetricExporter != "none" {
			t.Errorf("MetricExporter = %q, want none", cfg.MetricExporter)
		}
		if cfg.PrometheusPort != 9464 {
			t.Errorf("PrometheusPort = %d, want 9464", cfg.PrometheusPort)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("CSCOUT_ENV", "production")
		t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
		t.Setenv("OTEL_METRICS_EXPORTER", "stdout")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

		cfg := DefaultConfig()

		if cfg.Environment != "production" {
			t.Errorf("Environment = %q", cfg.Environment)
		}
		if cfg.TraceExporter != "stdout" {
			t.Errorf("TraceExporter = %q", cfg.TraceExporter)
		}
		if cfg.MetricExporter != "stdout" {
			t.Errorf("MetricExporter = %q", cfg.MetricExporter)
		}
		if cfg.OTLPEndpoint != "collector:4317" {
			t.Errorf("OTLPEndpoint = %q", cfg.OTLPEndpoint)
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // testing the nil-context guard
		if _, err := Init(nil, DefaultConfig()); !errors.Is(err, ErrNilContext) {
			t.Errorf("expected ErrNilContext, got %v", err)
		}
	})

	t.Run("disabled exporters", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TraceExporter = "none"
		cfg.MetricExporter = "none"

		shutdown, err := Init(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Init: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})

	t.Run("stdout exporters", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TraceExporter = "stdout"
		cfg.MetricExporter = "stdout"

		shutdown, err := Init(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Init: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})

	t.Run("unknown trace exporter", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TraceExporter = "carrier-pigeon"

		if _, err := Init(context.Background(), cfg); !errors.Is(err, ErrUnknownExporter) {
			t.Errorf("expected ErrUnknownExporter, got %v", err)
		}
	})

	t.Run("unknown metric exporter", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TraceExporter = "none"
		cfg.MetricExporter = "carrier-pigeon"

		if _, err := Init(context.Background(), cfg); !errors.Is(err, ErrUnknownExporter) {
			t.Errorf("expected ErrUnknownExporter, got %v", err)
		}
	})
}

func TestMetricsHandler_NilWithoutPrometheus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	if _, err := Init(context.Background(), cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Only the prometheus exporter installs a handler; none was
	// configured here, and no prior test in this package enables it.
	if MetricsHandler() != nil {
		t.Error("expected nil metrics handler without prometheus exporter")
	}
}
