// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
)

// HandleState serves GET /api/state: the full current aggregate.
func HandleState(st *store.FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := st.Load(c.Request.Context())
		if err != nil {
			slog.Error("Failed to load store", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// HandleReset serves POST /api/reset: discards all three logs atomically.
func HandleReset(st *store.FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := st.Reset(c.Request.Context()); err != nil {
			slog.Error("Failed to reset store", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// HealthCheck serves GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "workbench"})
}

// NotFound is the JSON 404 body for unmatched routes and methods.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
