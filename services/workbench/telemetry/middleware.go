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
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RequestIDKey is the gin context key carrying the per-request id.
const RequestIDKey = "request_id"

// GinMetrics returns middleware recording HTTP metrics for every request.
//
// Route templates (not raw paths) label the counters so cardinality stays
// bounded. Tracing is otelgin's job; this middleware only does metrics
// and request-id assignment.
func GinMetrics(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		ctx := c.Request.Context()
		activeAttrs := metric.WithAttributes(attribute.String("path", path))
		m.HTTPActiveRequests.Add(ctx, 1, activeAttrs)
		start := time.Now()

		c.Next()

		m.HTTPActiveRequests.Add(ctx, -1, activeAttrs)
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", path),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)
		m.HTTPRequestsTotal.Add(ctx, 1, attrs)
		m.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
