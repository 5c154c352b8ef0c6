// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides HTTP request handlers for the workbench
// service.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/CommentWorkbench/services/llm"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/datatypes"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/pipeline"
)

var handlerTracer = otel.Tracer("workbench.handlers")

// HandleComment serves POST /api/comment: the submission state machine.
//
// A review-mode submission short-circuits to the review stage and returns
// its result without any store access. A commit-mode submission runs the
// save path. Validation failures reject before any stage runs; upstream
// failures map to 502 with the provider detail, with a distinct message
// when only the summary refresh failed.
func HandleComment(pl *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleComment")
		defer span.End()

		// Malformed or absent bodies behave like empty submissions;
		// validation then rejects them with the field-specific message.
		var req datatypes.CommentRequest
		_ = c.ShouldBindJSON(&req)
		req.Trim()

		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		mode := req.Mode()
		span.SetAttributes(attribute.String("submission.mode", mode.String()))

		key, err := llm.Seal(req.APIKey)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to seal API key", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not protect the API key in memory."})
			return
		}
		defer key.Destroy()

		switch mode {
		case datatypes.ModeReview:
			result, err := pl.Review(ctx, key, req.Text, req.ImprovementRules)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				slog.Error("Review stage failed", "error", err)
				c.JSON(upstreamStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, datatypes.ReviewResponse{
				RequiresReview:     true,
				QualityAssessment:  result.QualityAssessment,
				Suggestions:        result.Suggestions,
				RevisedComment:     result.RevisedComment,
				MissingInformation: result.MissingInformation,
			})

		case datatypes.ModeCommit:
			receipt, err := pl.Commit(ctx, pipeline.CommitInput{
				Text:      req.Text,
				Translate: req.NormalizeEnglish,
				ToneRules: req.ToneRules,
				Key:       key,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				slog.Error("Commit failed, nothing persisted", "error", err)
				c.JSON(upstreamStatus(err), gin.H{"error": err.Error()})
				return
			}
			if receipt.SummaryErr != nil {
				// Degraded success: the pair persisted, the summary did
				// not refresh. The caller must be able to tell this
				// apart from a full failure.
				span.SetAttributes(attribute.Bool("commit.summary_failed", true))
				c.JSON(http.StatusBadGateway, gin.H{
					"error": "Comment saved, but summary update failed: " + receipt.SummaryErr.Error(),
				})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		}
	}
}

// upstreamStatus maps an error to its HTTP status: 502 for provider
// failures, 500 for anything unexpected (store I/O and the like).
func upstreamStatus(err error) int {
	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
