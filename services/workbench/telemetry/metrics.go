// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics contains the pre-defined metrics for the workbench service.
//
// All metrics use the "workbench_" prefix. Safe for concurrent use after
// creation.
type Metrics struct {
	// --- HTTP Metrics ---

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// HTTPActiveRequests tracks currently active HTTP requests.
	HTTPActiveRequests metric.Int64UpDownCounter

	// --- Pipeline Metrics ---

	// StageCallsTotal counts pipeline stage invocations by stage and status.
	StageCallsTotal metric.Int64Counter

	// StageDuration records per-stage provider-call duration in seconds.
	StageDuration metric.Float64Histogram

	// --- Store Metrics ---

	// StoreSaves counts committed store mutations.
	StoreSaves metric.Int64Counter

	// CommentsStored observes the current number of stored comments.
	CommentsStored metric.Int64ObservableGauge
}

// NewMetrics registers all workbench metrics with the given meter.
//
// countComments, when non-nil, is polled on collection to report the
// stored-comments gauge; it should be cheap and must be safe for
// concurrent use.
func NewMetrics(meter metric.Meter, countComments func(context.Context) (int, error)) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"workbench_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"workbench_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"workbench_http_active_requests",
		metric.WithDescription("Currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_active_requests: %w", err)
	}

	m.StageCallsTotal, err = meter.Int64Counter(
		"workbench_stage_calls_total",
		metric.WithDescription("Pipeline stage invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stage_calls_total: %w", err)
	}

	m.StageDuration, err = meter.Float64Histogram(
		"workbench_stage_duration_seconds",
		metric.WithDescription("Pipeline stage provider-call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45),
	)
	if err != nil {
		return nil, fmt.Errorf("create stage_duration: %w", err)
	}

	m.StoreSaves, err = meter.Int64Counter(
		"workbench_store_saves_total",
		metric.WithDescription("Committed store mutations"),
		metric.WithUnit("{save}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create store_saves_total: %w", err)
	}

	m.CommentsStored, err = meter.Int64ObservableGauge(
		"workbench_comments_stored",
		metric.WithDescription("Comments currently in the store"),
		metric.WithUnit("{comment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create comments_stored: %w", err)
	}

	if countComments != nil {
		_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			n, err := countComments(ctx)
			if err != nil {
				return err
			}
			o.ObserveInt64(m.CommentsStored, int64(n))
			return nil
		}, m.CommentsStored)
		if err != nil {
			return nil, fmt.Errorf("register comments_stored callback: %w", err)
		}
	}

	return m, nil
}

// RecordStage records one pipeline stage invocation.
func (m *Metrics) RecordStage(ctx context.Context, stage string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	)
	m.StageCallsTotal.Add(ctx, 1, attrs)
	m.StageDuration.Record(ctx, elapsed.Seconds(), attrs)
}
