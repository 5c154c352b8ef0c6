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
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CommentWorkbench/services/llm"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
)

// mockCall records one Generate invocation.
type mockCall struct {
	System string
	User   string
}

// mockClient is a scriptable llm.Client. GenerateFunc decides the reply;
// every call is recorded for assertions.
type mockClient struct {
	mu           sync.Mutex
	Calls        []mockCall
	GenerateFunc func(system, user string) (string, error)
}

func (m *mockClient) Generate(_ context.Context, _ *llm.SealedKey, system, user string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, mockCall{System: system, User: user})
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(system, user)
	}
	return "mock output", nil
}

func (m *mockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func newTestPipeline(t *testing.T, client llm.Client) (*Pipeline, *store.FileStore) {
	t.Helper()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "comments_store.json"))
	return New(client, st, nil), st
}

func testKey(t *testing.T) *llm.SealedKey {
	t.Helper()
	t.Setenv("WORKBENCH_INSECURE_MEMORY", "true")
	key, err := llm.Seal("sk-test")
	require.NoError(t, err)
	t.Cleanup(key.Destroy)
	return key
}

func TestReviewParsesStrictJSON(t *testing.T) {
	client := &mockClient{GenerateFunc: func(_, _ string) (string, error) {
		return `{
			"quality_assessment": "solid",
			"suggestions": ["add drivers"],
			"revised_comment": "Sales rose 4% on volume.",
			"missing_information": []
		}`, nil
	}}
	pl, _ := newTestPipeline(t, client)

	result, err := pl.Review(context.Background(), testKey(t), "Sales rose.", "Be specific.")
	require.NoError(t, err)

	assert.False(t, result.Degraded)
	assert.Equal(t, "solid", result.QualityAssessment)
	assert.Equal(t, []string{"add drivers"}, result.Suggestions)
	assert.Equal(t, "Sales rose 4% on volume.", result.RevisedComment)
	assert.Empty(t, result.MissingInformation)
	assert.Equal(t, 1, client.CallCount())
}

func TestReviewDegradedFallbackOnNonJSON(t *testing.T) {
	client := &mockClient{GenerateFunc: func(_, _ string) (string, error) {
		return "Sure! Here is my review: looks fine.", nil
	}}
	pl, _ := newTestPipeline(t, client)

	result, err := pl.Review(context.Background(), testKey(t), "text", "rules")
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, "Model output was not strict JSON. Showing raw output.", result.QualityAssessment)
	assert.Equal(t, "Sure! Here is my review: looks fine.", result.RevisedComment)
	assert.NotEmpty(t, result.Suggestions)
	assert.NotNil(t, result.MissingInformation)
}

func TestReviewPropagatesUpstreamError(t *testing.T) {
	upstream := &llm.UpstreamError{Status: 401, Message: "OpenAI HTTPError 401: unauthorized"}
	client := &mockClient{GenerateFunc: func(_, _ string) (string, error) {
		return "", upstream
	}}
	pl, _ := newTestPipeline(t, client)

	_, err := pl.Review(context.Background(), testKey(t), "text", "rules")
	var ue *llm.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 401, ue.Status)
}

func TestParseReviewNilSlicesBecomeEmpty(t *testing.T) {
	result, degraded := ParseReview(`{"quality_assessment":"ok","revised_comment":"r"}`)
	assert.False(t, degraded)
	assert.NotNil(t, result.Suggestions)
	assert.NotNil(t, result.MissingInformation)
}

func TestConsolidateDefaultToneRulesReachProvider(t *testing.T) {
	client := &mockClient{}
	pl, _ := newTestPipeline(t, client)

	_, err := pl.Consolidate(context.Background(), testKey(t), "text", "")
	require.NoError(t, err)

	require.Equal(t, 1, client.CallCount())
	assert.Contains(t, client.Calls[0].User, DefaultToneRules)
}

func TestSummarizeEmptyLogSkipsProvider(t *testing.T) {
	client := &mockClient{}
	pl, _ := newTestPipeline(t, client)

	summary, err := pl.Summarize(context.Background(), testKey(t), nil)
	require.NoError(t, err)

	assert.Equal(t, SummarySentinel, summary)
	assert.Equal(t, 0, client.CallCount())
}

func TestSummarizeBulletsEveryRow(t *testing.T) {
	client := &mockClient{}
	pl, _ := newTestPipeline(t, client)

	rows := []store.ConsolidatedComment{
		{CommentID: 1, ConsolidatedText: "alpha"},
		{CommentID: 2, ConsolidatedText: "beta"},
		{CommentID: 3, ConsolidatedText: "gamma"},
	}
	_, err := pl.Summarize(context.Background(), testKey(t), rows)
	require.NoError(t, err)

	require.Equal(t, 1, client.CallCount())
	assert.Contains(t, client.Calls[0].User, "- alpha\n- beta\n- gamma")
}

func TestAskEmptyLogSkipsProvider(t *testing.T) {
	client := &mockClient{}
	pl, _ := newTestPipeline(t, client)

	answer, err := pl.Ask(context.Background(), testKey(t), "What changed?")
	require.NoError(t, err)

	assert.Equal(t, AskSentinel, answer)
	assert.Equal(t, 0, client.CallCount())
}

func TestAskUsesConsolidatedContextOnly(t *testing.T) {
	client := &mockClient{GenerateFunc: func(_, _ string) (string, error) {
		return "volume drove revenue", nil
	}}
	pl, st := newTestPipeline(t, client)

	err := st.Update(context.Background(), func(snap *store.Snapshot) error {
		snap.Comments = append(snap.Comments, store.Comment{ID: 1, Text: "raw text"})
		snap.ConsolidatedComments = append(snap.ConsolidatedComments, store.ConsolidatedComment{
			CommentID: 1, ConsolidatedText: "consolidated text",
		})
		return nil
	})
	require.NoError(t, err)

	answer, err := pl.Ask(context.Background(), testKey(t), "What changed?")
	require.NoError(t, err)

	assert.Equal(t, "volume drove revenue", answer)
	require.Equal(t, 1, client.CallCount())
	assert.Contains(t, client.Calls[0].User, "- consolidated text")
	assert.NotContains(t, client.Calls[0].User, "raw text")
}

func TestAskDoesNotMutateStore(t *testing.T) {
	client := &mockClient{}
	pl, st := newTestPipeline(t, client)

	before, err := st.Load(context.Background())
	require.NoError(t, err)

	_, err = pl.Ask(context.Background(), testKey(t), "anything?")
	require.NoError(t, err)

	after, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTranslatePropagatesError(t *testing.T) {
	client := &mockClient{GenerateFunc: func(_, _ string) (string, error) {
		return "", errors.New("OpenAI request failed: connection refused")
	}}
	pl, _ := newTestPipeline(t, client)

	_, err := pl.Translate(context.Background(), testKey(t), "hola")
	assert.Error(t, err)
}
