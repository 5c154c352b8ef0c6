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
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/CommentWorkbench/services/llm"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/datatypes"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/pipeline"
)

// HandleAsk serves POST /api/ask: read-only analysis over the
// consolidated log.
//
// A blank question is answered with a fixed sentinel at 200 before the
// key is even checked, matching the UI's forgiving behavior.
func HandleAsk(pl *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleAsk")
		defer span.End()

		var req datatypes.AskRequest
		_ = c.ShouldBindJSON(&req)
		req.Trim()

		if req.Question == "" {
			c.JSON(http.StatusOK, gin.H{"answer": "Please insert a question."})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		key, err := llm.Seal(req.APIKey)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to seal API key", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not protect the API key in memory."})
			return
		}
		defer key.Destroy()

		answer, err := pl.Ask(ctx, key, req.Question)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Ask stage failed", "error", err)
			c.JSON(upstreamStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer})
	}
}
