// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline implements the comment-processing stages.
//
// Each stage is one externally-delegated text transformation: review,
// translate, consolidate, summarize, ask. Prompt construction lives here
// as pure functions so stage behavior is testable without a network.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
)

// DefaultToneRules is the consolidation fallback when the caller leaves
// tone rules blank. Contractual: tests assert this exact string reaches
// the provider.
const DefaultToneRules = "Use professional and consistent tone with strong readability."

// SummarySentinel is stored as the executive summary when no consolidated
// comments exist. Produced without a provider call.
const SummarySentinel = "No consolidated comments available yet."

// AskSentinel is returned for questions asked before any comment has been
// consolidated. Produced without a provider call.
const AskSentinel = "No consolidated comments available for analysis yet."

// ReviewPrompt builds the quality-review instruction pair. The schema in
// the user prompt is what ParseReview expects back.
func ReviewPrompt(rules, text string) (system, user string) {
	system = "You are an expert financial reporting coach. " +
		"Evaluate comment quality against the provided rules and return strict JSON."
	user = fmt.Sprintf(`Rules for quality/completeness:
%s

Controller comment:
%s

Return ONLY valid JSON with this exact schema:
{
  "quality_assessment": "short assessment",
  "suggestions": ["suggestion 1", "suggestion 2", "suggestion 3"],
  "revised_comment": "improved version; if missing info use placeholders like <ADD_DRIVER>",
  "missing_information": ["missing item 1", "missing item 2"]
}`, rules, text)
	return system, user
}

// TranslatePrompt builds the English-normalization instruction pair.
func TranslatePrompt(text string) (system, user string) {
	system = "Translate user comments into clear, professional English. Output only translated text."
	user = "Translate to English:\n" + text
	return system, user
}

// ConsolidatePrompt builds the tone-normalization instruction pair.
// Blank rules fall back to DefaultToneRules.
func ConsolidatePrompt(rules, text string) (system, user string) {
	if strings.TrimSpace(rules) == "" {
		rules = DefaultToneRules
	}
	system = "You standardize controller comments for consistency, readability, and professional tone."
	user = fmt.Sprintf(`Tone/style rules:
%s

Comment to consolidate:
%s

Return only the final consolidated comment.`, rules, text)
	return system, user
}

// SummaryPrompt builds the executive-summary instruction pair over the
// bulleted consolidated context.
func SummaryPrompt(context string) (system, user string) {
	system = "You write executive summaries for management reporting."
	user = "Create one concise executive summary in English based on all consolidated comments below.\n" +
		"Focus on themes, key risks/opportunities, and suggested direction.\n\n" +
		"Consolidated comments:\n" + context
	return system, user
}

// AskPrompt builds the analysis instruction pair for a question over the
// bulleted consolidated context.
func AskPrompt(question, context string) (system, user string) {
	system = "You are an analytical assistant. Answer with evidence from provided consolidated comments only."
	user = fmt.Sprintf("Question:\n%s\n\nConsolidated comments context:\n%s\n\nProvide a concise analysis in English.",
		question, context)
	return system, user
}

// BulletContext joins every consolidated text as one "- text" line per
// row, preserving log order. Summarize and Ask share this context shape.
func BulletContext(rows []store.ConsolidatedComment) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = "- " + row.ConsolidatedText
	}
	return strings.Join(lines, "\n")
}
