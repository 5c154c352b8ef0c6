// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "data", "comments_store.json"))
}

// TestLoad_CreatesEmptyAggregate verifies first access creates the parent
// directory and an empty aggregate with all three logs present.
func TestLoad_CreatesEmptyAggregate(t *testing.T) {
	st := newTestStore(t)

	snap, err := st.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.Comments)
	assert.Empty(t, snap.ConsolidatedComments)
	assert.Empty(t, snap.ExecutiveSummaries)

	// The file must exist on disk with [] (not null) for every log.
	data, err := os.ReadFile(st.Path())
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"comments", "consolidated_comments", "executive_summaries"} {
		assert.JSONEq(t, "[]", string(raw[key]), "log %q must serialize as []", key)
	}
}

// TestUpdate_PersistsMutation verifies a successful mutate callback is
// written through to disk.
func TestUpdate_PersistsMutation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.Update(ctx, func(s *Snapshot) error {
		id := s.NextCommentID()
		s.Comments = append(s.Comments, Comment{ID: id, Text: "Sales dropped", CreatedAt: UTCNow()})
		s.ConsolidatedComments = append(s.ConsolidatedComments, ConsolidatedComment{
			CommentID:        id,
			ConsolidatedText: "Sales declined.",
			CreatedAt:        UTCNow(),
		})
		return nil
	})
	require.NoError(t, err)

	snap, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Comments, 1)
	require.Len(t, snap.ConsolidatedComments, 1)
	assert.Equal(t, 1, snap.Comments[0].ID)
	assert.Equal(t, 1, snap.ConsolidatedComments[0].CommentID)
}

// TestUpdate_ErrorWritesNothing verifies a failed mutate callback leaves
// the file untouched.
func TestUpdate_ErrorWritesNothing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("consolidate failed")
	err := st.Update(ctx, func(s *Snapshot) error {
		s.Comments = append(s.Comments, Comment{ID: 1, Text: "orphan", CreatedAt: UTCNow()})
		return boom
	})
	require.ErrorIs(t, err, boom)

	snap, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Comments, "aborted update must not persist partial state")
}

// TestReset_EmptiesAllLogs covers the reset lifecycle.
func TestReset_EmptiesAllLogs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Update(ctx, func(s *Snapshot) error {
		s.Comments = append(s.Comments, Comment{ID: 1, Text: "a", CreatedAt: UTCNow()})
		s.ConsolidatedComments = append(s.ConsolidatedComments, ConsolidatedComment{CommentID: 1, ConsolidatedText: "A", CreatedAt: UTCNow()})
		s.ExecutiveSummaries = []ExecutiveSummary{{SummaryText: "sum", CreatedAt: UTCNow()}}
		return nil
	}))

	require.NoError(t, st.Reset(ctx))

	snap, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Comments)
	assert.Empty(t, snap.ConsolidatedComments)
	assert.Empty(t, snap.ExecutiveSummaries)
}

// TestUpdate_ConcurrentCommitsKeepPairInvariant hammers Update from many
// goroutines and verifies ids stay monotonic and the logs stay paired.
func TestUpdate_ConcurrentCommitsKeepPairInvariant(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = st.Update(ctx, func(s *Snapshot) error {
				id := s.NextCommentID()
				s.Comments = append(s.Comments, Comment{ID: id, Text: "t", CreatedAt: UTCNow()})
				s.ConsolidatedComments = append(s.ConsolidatedComments, ConsolidatedComment{
					CommentID: id, ConsolidatedText: "c", CreatedAt: UTCNow(),
				})
				return nil
			})
		}()
	}
	wg.Wait()

	snap, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Comments, workers)
	require.Len(t, snap.ConsolidatedComments, workers)
	for i := range snap.Comments {
		assert.Equal(t, i+1, snap.Comments[i].ID)
		assert.Equal(t, snap.Comments[i].ID, snap.ConsolidatedComments[i].CommentID)
	}
}

// TestLoad_RejectsCorruptFile verifies a mangled store file surfaces a
// parse error instead of silently resetting.
func TestLoad_RejectsCorruptFile(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(st.Path(), []byte("{not json"), 0644))

	_, err = st.Load(context.Background())
	assert.ErrorContains(t, err, "parse store file")
}
