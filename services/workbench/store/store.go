// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists the comment workbench aggregate.
//
// The aggregate is one JSON file holding three ordered logs: raw comments,
// consolidated comments, and at most one executive summary. The file is
// rewritten wholesale on every mutation. A single mutex serializes the
// load-mutate-save cycle of every mutation so the pairing invariant
// (one consolidated comment per raw comment) holds under concurrent
// requests.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Comment is one raw controller comment. Immutable once appended.
type Comment struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// ConsolidatedComment is the tone-normalized derivative of exactly one
// Comment, keyed by CommentID.
type ConsolidatedComment struct {
	CommentID        int    `json:"comment_id"`
	ConsolidatedText string `json:"consolidated_text"`
	CreatedAt        string `json:"created_at"`
}

// ExecutiveSummary is the rolling synthesis over all consolidated comments.
// The store holds at most one; each refresh replaces the previous entry.
type ExecutiveSummary struct {
	SummaryText string `json:"summary_text"`
	CreatedAt   string `json:"created_at"`
}

// Snapshot is the full persisted aggregate.
//
// Wire names match the persisted file and the /api/state response exactly.
type Snapshot struct {
	Comments             []Comment             `json:"comments"`
	ConsolidatedComments []ConsolidatedComment `json:"consolidated_comments"`
	ExecutiveSummaries   []ExecutiveSummary    `json:"executive_summaries"`
}

// Normalize replaces nil slices with empty ones so the aggregate always
// serializes as [] rather than null.
func (s *Snapshot) Normalize() {
	if s.Comments == nil {
		s.Comments = []Comment{}
	}
	if s.ConsolidatedComments == nil {
		s.ConsolidatedComments = []ConsolidatedComment{}
	}
	if s.ExecutiveSummaries == nil {
		s.ExecutiveSummaries = []ExecutiveSummary{}
	}
}

// NextCommentID returns the id the next appended comment must take.
// IDs are monotonic and assigned as len(comments)+1.
func (s *Snapshot) NextCommentID() int {
	return len(s.Comments) + 1
}

// UTCNow returns the timestamp format used for every persisted row:
// UTC, second precision, no zone suffix.
func UTCNow() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}

// FileStore is a file-backed Snapshot store.
//
// # Thread Safety
//
// All operations serialize on one mutex. Update holds the lock across the
// caller's mutate callback, so a commit's upstream calls and its
// append+save form one critical section. This makes concurrent commits
// strictly ordered instead of racing read-modify-write cycles on the file.
type FileStore struct {
	path string
	mu   sync.Mutex

	// lastSave is the unix-nano time of our most recent write, used by
	// the watcher to tell owned writes from external ones.
	lastSave atomic.Int64
}

// NewFileStore creates a FileStore backed by the given path.
// The file itself is created lazily on first access.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load returns the current aggregate, creating the empty aggregate file
// (and its parent directory) on first access.
func (f *FileStore) Load(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(ctx)
}

// Update runs fn against the current aggregate and persists the result.
//
// The whole load-mutate-save cycle runs under the store mutex. If fn
// returns an error nothing is written and the error is returned as-is,
// so callers can abort a commit without partial state. fn receives a
// normalized snapshot and may mutate it in place.
func (f *FileStore) Update(ctx context.Context, fn func(*Snapshot) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.loadLocked(ctx)
	if err != nil {
		return err
	}
	if err := fn(&snap); err != nil {
		return err
	}
	return f.saveLocked(&snap)
}

// Reset atomically replaces the aggregate with the empty one.
func (f *FileStore) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	empty := Snapshot{}
	empty.Normalize()
	if err := f.saveLocked(&empty); err != nil {
		return err
	}
	slog.Info("Store reset", "path", f.path)
	return nil
}

// LastSave reports when this process last wrote the file. Zero means
// never written by this process.
func (f *FileStore) LastSave() time.Time {
	n := f.lastSave.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (f *FileStore) loadLocked(_ context.Context) (Snapshot, error) {
	if err := f.ensureLocked(); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read store file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse store file %s: %w", f.path, err)
	}
	snap.Normalize()
	return snap, nil
}

func (f *FileStore) saveLocked(snap *Snapshot) error {
	snap.Normalize()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	f.lastSave.Store(time.Now().UnixNano())
	return nil
}

// ensureLocked creates the parent directory and the empty aggregate file
// when the backing file does not exist yet.
func (f *FileStore) ensureLocked() error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat store file: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	empty := Snapshot{}
	empty.Normalize()
	slog.Info("Creating empty store", "path", f.path)
	return f.saveLocked(&empty)
}
