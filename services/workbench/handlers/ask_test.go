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
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CommentWorkbench/services/llm"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
)

// TestHandleAsk_BlankQuestionSentinel verifies a blank question answers
// 200 before the key is checked, with zero provider calls.
func TestHandleAsk_BlankQuestionSentinel(t *testing.T) {
	mockLLM := &MockLLMClient{}
	pl, _ := newTestDeps(t, mockLLM)
	router := createTestRouter("POST", "/api/ask", HandleAsk(pl))

	// No question and no key: the sentinel wins over key validation.
	w := performRequest(router, "POST", "/api/ask", map[string]any{})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Please insert a question.", decodeBody(t, w)["answer"])
	assert.Equal(t, 0, mockLLM.CallCount())
}

// TestHandleAsk_MissingKey verifies the 400 message for a real question
// without a key.
func TestHandleAsk_MissingKey(t *testing.T) {
	mockLLM := &MockLLMClient{}
	pl, _ := newTestDeps(t, mockLLM)
	router := createTestRouter("POST", "/api/ask", HandleAsk(pl))

	w := performRequest(router, "POST", "/api/ask", map[string]any{
		"question": "What changed?",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "OpenAI API key is required in configuration.", decodeBody(t, w)["error"])
}

// TestHandleAsk_EmptyLogSentinel verifies questions against an empty
// consolidated log answer with the fixed sentinel and no provider call.
func TestHandleAsk_EmptyLogSentinel(t *testing.T) {
	mockLLM := &MockLLMClient{}
	pl, _ := newTestDeps(t, mockLLM)
	router := createTestRouter("POST", "/api/ask", HandleAsk(pl))

	w := performRequest(router, "POST", "/api/ask", map[string]any{
		"question": "What changed?",
		"api_key":  "sk-test",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No consolidated comments available for analysis yet.", decodeBody(t, w)["answer"])
	assert.Equal(t, 0, mockLLM.CallCount())
}

// TestHandleAsk_Success verifies the analysis answer flows through.
func TestHandleAsk_Success(t *testing.T) {
	mockLLM := &MockLLMClient{GenerateFunc: func(_, _ string) (string, error) {
		return "Revenue was driven by volume.", nil
	}}
	pl, st := newTestDeps(t, mockLLM)
	router := createTestRouter("POST", "/api/ask", HandleAsk(pl))

	err := st.Update(context.Background(), func(snap *store.Snapshot) error {
		snap.ConsolidatedComments = append(snap.ConsolidatedComments, store.ConsolidatedComment{
			CommentID: 1, ConsolidatedText: "Revenue rose on volume.",
		})
		return nil
	})
	require.NoError(t, err)

	w := performRequest(router, "POST", "/api/ask", map[string]any{
		"question": "What drove revenue?",
		"api_key":  "sk-test",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Revenue was driven by volume.", decodeBody(t, w)["answer"])
}

// TestHandleAsk_UpstreamFailureIs502 verifies provider failures surface
// at 502 with the provider detail.
func TestHandleAsk_UpstreamFailureIs502(t *testing.T) {
	mockLLM := &MockLLMClient{GenerateFunc: func(_, _ string) (string, error) {
		return "", &llm.UpstreamError{Status: 429, Message: "OpenAI HTTPError 429: rate limited"}
	}}
	pl, st := newTestDeps(t, mockLLM)
	router := createTestRouter("POST", "/api/ask", HandleAsk(pl))

	err := st.Update(context.Background(), func(snap *store.Snapshot) error {
		snap.ConsolidatedComments = append(snap.ConsolidatedComments, store.ConsolidatedComment{
			CommentID: 1, ConsolidatedText: "row",
		})
		return nil
	})
	require.NoError(t, err)

	w := performRequest(router, "POST", "/api/ask", map[string]any{
		"question": "What changed?",
		"api_key":  "sk-test",
	})

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "OpenAI HTTPError 429: rate limited", decodeBody(t, w)["error"])
}
