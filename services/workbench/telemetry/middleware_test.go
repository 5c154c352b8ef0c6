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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMetricsAssignsRequestID(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), nil)
	require.NoError(t, err)

	var seenID string
	router := gin.New()
	router.Use(GinMetrics(m))
	router.GET("/api/state", func(c *gin.Context) {
		seenID = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest("GET", "/api/state", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	_, err = uuid.Parse(seenID)
	assert.NoError(t, err, "context request id must be a uuid")
	assert.Equal(t, seenID, w.Header().Get("X-Request-ID"))
}

func TestGinMetricsRecordsRouteTemplate(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), nil)
	require.NoError(t, err)

	router := gin.New()
	router.Use(GinMetrics(m))
	router.GET("/api/comment/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest("GET", "/api/comment/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, inst := range sm.Metrics {
			if inst.Name != "workbench_http_requests_total" {
				continue
			}
			sum, ok := inst.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.NotEmpty(t, sum.DataPoints)
			path, _ := sum.DataPoints[0].Attributes.Value("path")
			assert.Equal(t, "/api/comment/:id", path.AsString())
			found = true
		}
	}
	assert.True(t, found, "http requests counter must be collected")
}
