// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the workbench
// HTTP surface.
package datatypes

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for this package.
var validate = validator.New()

// ValidationError is a client error rejected before any stage runs.
// Message is the exact 400 body text.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubmissionMode is the enumerated state a comment submission lands in,
// computed once at request entry.
type SubmissionMode int

const (
	// ModeReview short-circuits to the review stage and returns its
	// result without touching the store.
	ModeReview SubmissionMode = iota

	// ModeCommit proceeds through translate/consolidate/summarize and
	// persists.
	ModeCommit
)

func (m SubmissionMode) String() string {
	switch m {
	case ModeReview:
		return "review"
	case ModeCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// CommentRequest is the POST /api/comment body.
//
// The credential and prompt-customization rules travel with every request;
// the server never persists them. Absent fields take their zero values,
// matching the lenient body handling of the UI.
type CommentRequest struct {
	Text                string `json:"text" validate:"required"`
	SuggestImprovements bool   `json:"suggest_improvements"`
	NormalizeEnglish    bool   `json:"normalize_english"`
	Reviewed            bool   `json:"reviewed"`
	APIKey              string `json:"api_key" validate:"required"`
	ToneRules           string `json:"tone_rules"`
	ImprovementRules    string `json:"improvement_rules"`
}

// Trim normalizes all string fields. Must run before Validate so blank
// and whitespace-only inputs are treated identically.
func (r *CommentRequest) Trim() {
	r.Text = strings.TrimSpace(r.Text)
	r.APIKey = strings.TrimSpace(r.APIKey)
	r.ToneRules = strings.TrimSpace(r.ToneRules)
	r.ImprovementRules = strings.TrimSpace(r.ImprovementRules)
}

// Mode computes the submission mode. A request asking for suggestions
// that has not been reviewed yet is a review round-trip; everything else
// commits (an attested review behaves exactly like a plain save).
func (r *CommentRequest) Mode() SubmissionMode {
	if r.SuggestImprovements && !r.Reviewed {
		return ModeReview
	}
	return ModeCommit
}

// Validate enforces the field requirements in contract order. The
// returned ValidationError messages are exact 400 body texts.
func (r *CommentRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) || len(errs) == 0 {
			return &ValidationError{Message: err.Error()}
		}
		// Field declaration order matches the required validation order,
		// so the first reported failure is the one to surface.
		switch errs[0].StructField() {
		case "Text":
			return &ValidationError{Message: "Comment text is required."}
		case "APIKey":
			return &ValidationError{Message: "OpenAI API key is required in configuration."}
		default:
			return &ValidationError{Message: errs[0].Error()}
		}
	}
	// Improvement rules are required only for a review round-trip.
	if r.Mode() == ModeReview && r.ImprovementRules == "" {
		return &ValidationError{Message: "Please set 'Improvements rules' in configuration before requesting suggestions."}
	}
	return nil
}

// AskRequest is the POST /api/ask body.
//
// A blank question is not a validation failure: the handler answers it
// with a fixed sentinel, so only the key is required here.
type AskRequest struct {
	Question string `json:"question"`
	APIKey   string `json:"api_key" validate:"required"`
}

// Trim normalizes the string fields.
func (r *AskRequest) Trim() {
	r.Question = strings.TrimSpace(r.Question)
	r.APIKey = strings.TrimSpace(r.APIKey)
}

// Validate enforces the key requirement with the exact 400 message.
func (r *AskRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &ValidationError{Message: "OpenAI API key is required in configuration."}
	}
	return nil
}

// ReviewResponse is the 200 body for a review-mode submission.
type ReviewResponse struct {
	RequiresReview     bool     `json:"requires_review"`
	QualityAssessment  string   `json:"quality_assessment"`
	Suggestions        []string `json:"suggestions"`
	RevisedComment     string   `json:"revised_comment"`
	MissingInformation []string `json:"missing_information"`
}
