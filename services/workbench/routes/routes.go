// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes registers the workbench HTTP surface.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CommentWorkbench/services/workbench/handlers"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/pipeline"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/telemetry"
)

// SetupRoutes wires every endpoint onto the router.
func SetupRoutes(router *gin.Engine, st *store.FileStore, pl *pipeline.Pipeline) {
	router.GET("/", handlers.HandleIndex)
	router.GET("/health", handlers.HealthCheck)

	if h := telemetry.MetricsHandler(); h != nil {
		router.GET("/metrics", gin.WrapH(h))
	}

	api := router.Group("/api")
	{
		api.GET("/state", handlers.HandleState(st))
		api.POST("/reset", handlers.HandleReset(st))
		api.POST("/comment", handlers.HandleComment(pl))
		api.POST("/ask", handlers.HandleAsk(pl))
	}

	router.NoRoute(handlers.NotFound)
	router.NoMethod(handlers.NotFound)
}
