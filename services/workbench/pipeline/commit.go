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
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/CommentWorkbench/services/llm"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
)

// CommitInput carries everything one commit needs. The key is supplied by
// the caller per request and never persisted.
type CommitInput struct {
	Text      string
	Translate bool
	ToneRules string
	Key       *llm.SealedKey
}

// CommitReceipt reports the outcome of a successful commit.
//
// SummaryErr is the degraded-success signal: the comment pair persisted
// but the summary refresh failed. The prior summary (or its absence) is
// left untouched in that case. Handlers must report this distinctly from
// a full failure.
type CommitReceipt struct {
	CommentID  int
	SummaryErr error
}

// Commit runs the save path: optional translate, mandatory consolidate,
// append the comment pair, refresh the summary over the whole log, and
// persist - all inside one store critical section.
//
// Failure policy:
//   - translate or consolidate fails: nothing is persisted, the error
//     is returned.
//   - summarize fails: the two new rows persist, the prior summary is
//     kept, and the error comes back in CommitReceipt.SummaryErr.
func (p *Pipeline) Commit(ctx context.Context, in CommitInput) (CommitReceipt, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Commit")
	defer span.End()
	span.SetAttributes(attribute.Bool("commit.translate", in.Translate))

	var receipt CommitReceipt

	err := p.store.Update(ctx, func(snap *store.Snapshot) error {
		finalText := in.Text
		if in.Translate {
			translated, err := p.Translate(ctx, in.Key, finalText)
			if err != nil {
				return err
			}
			finalText = translated
		}

		consolidated, err := p.Consolidate(ctx, in.Key, finalText, in.ToneRules)
		if err != nil {
			return err
		}

		id := snap.NextCommentID()
		snap.Comments = append(snap.Comments, store.Comment{
			ID:        id,
			Text:      finalText,
			CreatedAt: store.UTCNow(),
		})
		snap.ConsolidatedComments = append(snap.ConsolidatedComments, store.ConsolidatedComment{
			CommentID:        id,
			ConsolidatedText: consolidated,
			CreatedAt:        store.UTCNow(),
		})
		receipt.CommentID = id

		// The summary covers the whole log including the row just
		// appended. Its failure does not roll back the pair: the rows
		// persist and the prior summary stays as-is.
		summary, err := p.Summarize(ctx, in.Key, snap.ConsolidatedComments)
		if err != nil {
			receipt.SummaryErr = err
			slog.Warn("Comment pair persisted without summary refresh",
				"comment_id", id, "error", err)
			return nil
		}
		snap.ExecutiveSummaries = []store.ExecutiveSummary{{
			SummaryText: summary,
			CreatedAt:   store.UTCNow(),
		}}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CommitReceipt{}, err
	}

	if p.metrics != nil {
		p.metrics.StoreSaves.Add(ctx, 1)
	}
	span.SetAttributes(attribute.Int("commit.comment_id", receipt.CommentID))
	slog.Info("Comment committed",
		"comment_id", receipt.CommentID,
		"translated", in.Translate,
		"summary_refreshed", receipt.SummaryErr == nil,
	)
	return receipt, nil
}
