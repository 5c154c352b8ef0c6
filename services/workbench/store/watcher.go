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
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ownWriteWindow is how close to our own save an event may land and still
// be attributed to this process.
const ownWriteWindow = 500 * time.Millisecond

// Watcher observes the store file for writes made by other processes.
//
// The service assumes it is the single writer of the store file; this
// watcher makes violations of that assumption observable. It watches the
// file's directory (watching the file directly misses atomic replaces),
// debounces bursts, and logs a warning for any write it cannot attribute
// to the owning FileStore. It never mutates state.
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	debounce time.Duration

	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
}

// NewWatcher creates a Watcher for the given store.
func NewWatcher(st *FileStore) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		store:    st,
		watcher:  fsw,
		debounce: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the directory watch is
// registered; events are processed on a background goroutine until Stop
// is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch store directory %s: %w", dir, err)
	}
	w.started = true

	go w.loop(ctx)
	slog.Debug("Store watcher started", "dir", dir, "file", w.store.Path())
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	target, _ := filepath.Abs(w.store.Path())

	var timer *time.Timer
	var timerC <-chan time.Time
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isStoreFile(event.Name, target) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			w.report(pending)
			pending = 0
			timer = nil
			timerC = nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Store watcher error", "error", err)
		}
	}
}

// report logs the debounced batch, attributing it to this process when it
// lands inside the own-write window of the store's last save.
func (w *Watcher) report(events int) {
	last := w.store.LastSave()
	if !last.IsZero() && time.Since(last) < ownWriteWindow {
		slog.Debug("Store file write (owned)", "events", events)
		return
	}
	slog.Warn("Store file modified by another process; single-writer assumption violated",
		"path", w.store.Path(),
		"events", events,
	)
}

func (w *Watcher) isStoreFile(name, target string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == target
}
