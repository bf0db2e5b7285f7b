// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package clangd

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for clangd operations.
var (
	tracer = otel.Tracer("cscout.clangd")
	meter  = otel.Meter("cscout.clangd")
)

// Metrics for clangd requests and lifecycle events.
var (
	requestLatency metric.Float64Histogram
	requestTotal   metric.Int64Counter
	processSpawns  metric.Int64Counter
	indexDuration  metric.Float64Histogram
	resultCount    metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		requestLatency, err = meter.Float64Histogram(
			"clangd_request_duration_seconds",
			metric.WithDescription("Duration of clangd requests"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		requestTotal, err = meter.Int64Counter(
			"clangd_request_total",
			metric.WithDescription("Total number of clangd requests"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		processSpawns, err = meter.Int64Counter(
			"clangd_spawns_total",
			metric.WithDescription("Total number of clangd process spawns"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexDuration, err = meter.Float64Histogram(
			"clangd_index_duration_seconds",
			metric.WithDescription("Time from spawn to background index completion"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		resultCount, err = meter.Int64Histogram(
			"clangd_result_count",
			metric.WithDescription("Number of locations returned by symbol queries"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startOperationSpan creates a span for a symbol query.
func startOperationSpan(ctx context.Context, operation, symbol string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Operations."+operation,
		trace.WithAttributes(
			attribute.String("clangd.operation", operation),
			attribute.String("clangd.symbol", symbol),
		),
	)
}

// setOperationSpanResult sets the result attributes on an operation span.
func setOperationSpanResult(span trace.Span, resultCnt int, success bool) {
	span.SetAttributes(
		attribute.Int("clangd.result_count", resultCnt),
		attribute.Bool("clangd.success", success),
	)
}

// recordOperationMetrics records metrics for a symbol query.
func recordOperationMetrics(ctx context.Context, operation string, duration time.Duration, resultCnt int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	)

	requestLatency.Record(ctx, duration.Seconds(), attrs)
	requestTotal.Add(ctx, 1, attrs)

	if success {
		resultCount.Record(ctx, int64(resultCnt), metric.WithAttributes(
			attribute.String("operation", operation),
		))
	}
}

// recordRequest records a single protocol request by method.
func recordRequest(ctx context.Context, method string, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("success", success),
	)
	requestLatency.Record(ctx, duration.Seconds(), attrs)
	requestTotal.Add(ctx, 1, attrs)
}

// recordSpawn records a clangd process spawn attempt.
func recordSpawn(ctx context.Context, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	processSpawns.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// recordIndexDuration records the time background indexing took.
func recordIndexDuration(ctx context.Context, d time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	indexDuration.Record(ctx, d.Seconds())
}
