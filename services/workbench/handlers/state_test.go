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

	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
)

// TestHandleState_EmptyStoreReturnsArrays verifies the three logs come
// back as [] rather than null on a fresh store.
func TestHandleState_EmptyStoreReturnsArrays(t *testing.T) {
	_, st := newTestDeps(t, &MockLLMClient{})
	router := createTestRouter("GET", "/api/state", HandleState(st))

	w := performRequest(router, "GET", "/api/state", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"comments":[],"consolidated_comments":[],"executive_summaries":[]}`,
		w.Body.String())
}

// TestHandleState_ReturnsStoredRows verifies the state payload mirrors
// the store contents.
func TestHandleState_ReturnsStoredRows(t *testing.T) {
	_, st := newTestDeps(t, &MockLLMClient{})
	router := createTestRouter("GET", "/api/state", HandleState(st))

	err := st.Update(context.Background(), func(snap *store.Snapshot) error {
		snap.Comments = append(snap.Comments, store.Comment{ID: 1, Text: "raw", CreatedAt: "2026-01-02T03:04:05"})
		snap.ConsolidatedComments = append(snap.ConsolidatedComments, store.ConsolidatedComment{
			CommentID: 1, ConsolidatedText: "clean", CreatedAt: "2026-01-02T03:04:06",
		})
		return nil
	})
	require.NoError(t, err)

	w := performRequest(router, "GET", "/api/state", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	comments, ok := body["comments"].([]any)
	require.True(t, ok)
	require.Len(t, comments, 1)
	first, ok := comments[0].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, first["id"])
	assert.Equal(t, "raw", first["text"])
}

// TestHandleReset_ClearsAllLogs verifies reset empties all three logs.
func TestHandleReset_ClearsAllLogs(t *testing.T) {
	_, st := newTestDeps(t, &MockLLMClient{})
	router := createTestRouter("POST", "/api/reset", HandleReset(st))

	err := st.Update(context.Background(), func(snap *store.Snapshot) error {
		snap.Comments = append(snap.Comments, store.Comment{ID: 1, Text: "raw"})
		snap.ExecutiveSummaries = append(snap.ExecutiveSummaries, store.ExecutiveSummary{SummaryText: "s"})
		return nil
	})
	require.NoError(t, err)

	w := performRequest(router, "POST", "/api/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])

	snap, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Comments)
	assert.Empty(t, snap.ConsolidatedComments)
	assert.Empty(t, snap.ExecutiveSummaries)
}

// TestHealthCheck verifies the liveness body.
func TestHealthCheck(t *testing.T) {
	router := createTestRouter("GET", "/health", HealthCheck)

	w := performRequest(router, "GET", "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"workbench"}`, w.Body.String())
}

// TestNotFound verifies the JSON 404 body.
func TestNotFound(t *testing.T) {
	router := createTestRouter("GET", "/health", HealthCheck)
	router.NoRoute(NotFound)

	w := performRequest(router, "GET", "/nope", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}
