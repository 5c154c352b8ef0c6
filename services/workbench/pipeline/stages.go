// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/CommentWorkbench/services/llm"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/telemetry"
)

var tracer = otel.Tracer("workbench.pipeline")

// Pipeline composes the text-generation client with the store for the
// five stage operations. All stage methods are blocking and make at most
// one provider call; none retry.
type Pipeline struct {
	client  llm.Client
	store   *store.FileStore
	metrics *telemetry.Metrics // nil disables stage metrics
}

// New creates a Pipeline. metrics may be nil.
func New(client llm.Client, st *store.FileStore, metrics *telemetry.Metrics) *Pipeline {
	return &Pipeline{client: client, store: st, metrics: metrics}
}

// ReviewResult is the structured outcome of the review stage.
//
// Degraded marks the fallback taken when the provider's output was not
// strict JSON: RevisedComment then carries the raw output and the other
// fields hold fixed placeholders. Both shapes satisfy the same response
// contract, so a shape mismatch is never an error.
type ReviewResult struct {
	QualityAssessment  string   `json:"quality_assessment"`
	Suggestions        []string `json:"suggestions"`
	RevisedComment     string   `json:"revised_comment"`
	MissingInformation []string `json:"missing_information"`

	Degraded bool `json:"-"`
}

// Review runs the quality-review stage. Advisory only: it never touches
// the store. Fails only on an upstream call failure.
func (p *Pipeline) Review(ctx context.Context, key *llm.SealedKey, text, rules string) (ReviewResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Review")
	defer span.End()

	system, user := ReviewPrompt(rules, text)
	raw, err := p.generate(ctx, "review", key, system, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewResult{}, err
	}

	result, degraded := ParseReview(raw)
	span.SetAttributes(attribute.Bool("review.degraded", degraded))
	if degraded {
		slog.Warn("Review output was not strict JSON, using degraded fallback")
	}
	return result, nil
}

// ParseReview decodes the provider's review output. On any shape mismatch
// it returns the degraded fallback with the raw text preserved in
// RevisedComment.
func ParseReview(raw string) (ReviewResult, bool) {
	var result ReviewResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return ReviewResult{
			QualityAssessment:  "Model output was not strict JSON. Showing raw output.",
			Suggestions:        []string{"Retry with clearer rules in configuration panel."},
			RevisedComment:     raw,
			MissingInformation: []string{},
			Degraded:           true,
		}, true
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	if result.MissingInformation == nil {
		result.MissingInformation = []string{}
	}
	return result, false
}

// Translate runs the optional English-normalization stage. The returned
// text replaces the working text for downstream stages.
func (p *Pipeline) Translate(ctx context.Context, key *llm.SealedKey, text string) (string, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Translate")
	defer span.End()

	system, user := TranslatePrompt(text)
	out, err := p.generate(ctx, "translate", key, system, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

// Consolidate runs the mandatory tone-normalization stage. The output is
// used literally, with no further parsing.
func (p *Pipeline) Consolidate(ctx context.Context, key *llm.SealedKey, text, toneRules string) (string, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Consolidate")
	defer span.End()

	system, user := ConsolidatePrompt(toneRules, text)
	out, err := p.generate(ctx, "consolidate", key, system, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

// Summarize produces one executive summary over the entire consolidated
// log. An empty log yields SummarySentinel with zero provider calls.
func (p *Pipeline) Summarize(ctx context.Context, key *llm.SealedKey, rows []store.ConsolidatedComment) (string, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Summarize")
	defer span.End()
	span.SetAttributes(attribute.Int("summary.context_rows", len(rows)))

	if len(rows) == 0 {
		return SummarySentinel, nil
	}

	system, user := SummaryPrompt(BulletContext(rows))
	out, err := p.generate(ctx, "summarize", key, system, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

// Ask answers a question strictly from the consolidated log. Read-only:
// it loads a snapshot and never mutates the store. An empty log yields
// AskSentinel with zero provider calls.
func (p *Pipeline) Ask(ctx context.Context, key *llm.SealedKey, question string) (string, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Ask")
	defer span.End()

	snap, err := p.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if len(snap.ConsolidatedComments) == 0 {
		return AskSentinel, nil
	}

	system, user := AskPrompt(question, BulletContext(snap.ConsolidatedComments))
	out, err := p.generate(ctx, "ask", key, system, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

// generate delegates to the client and records per-stage metrics.
func (p *Pipeline) generate(ctx context.Context, stage string, key *llm.SealedKey, system, user string) (string, error) {
	start := time.Now()
	out, err := p.client.Generate(ctx, key, system, user)
	if p.metrics != nil {
		p.metrics.RecordStage(ctx, stage, time.Since(start), err)
	}
	return out, err
}
