// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workbench assembles the comment workbench service: the
// file-backed store, the processing pipeline, and the HTTP surface.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/CommentWorkbench/services/llm"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/pipeline"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/routes"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/store"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/telemetry"
)

// ServiceName identifies the workbench in traces and metrics.
const ServiceName = "workbench"

// shutdownGrace bounds graceful HTTP shutdown on exit.
const shutdownGrace = 10 * time.Second

// Config carries everything the server needs at startup.
type Config struct {
	// Host and Port form the listen address.
	Host string
	Port int

	// DataPath is the store file location.
	DataPath string

	// Model, BaseURL, Timeout, Temperature configure the OpenAI client.
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32

	// WatchStore enables the external-modification watcher.
	WatchStore bool
}

// Server is the assembled workbench service.
type Server struct {
	cfg     Config
	store   *store.FileStore
	metrics *telemetry.Metrics
	router  *gin.Engine
}

// New assembles a Server from the given configuration. Telemetry must be
// initialized (or explicitly disabled) before calling New, since metric
// registration uses the global meter provider.
func New(cfg Config) (*Server, error) {
	st := store.NewFileStore(cfg.DataPath)

	metrics, err := telemetry.NewMetrics(
		otel.Meter(ServiceName),
		func(ctx context.Context) (int, error) {
			snap, err := st.Load(ctx)
			if err != nil {
				return 0, err
			}
			return len(snap.Comments), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	client := llm.NewOpenAIClient(llm.OpenAIConfig{
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
	})
	pl := pipeline.New(client, st, metrics)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(ServiceName))
	router.Use(telemetry.GinMetrics(metrics))
	routes.SetupRoutes(router, st, pl)

	return &Server{cfg: cfg, store: st, metrics: metrics, router: router}, nil
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves HTTP until the context is cancelled or SIGINT/SIGTERM
// arrives, then shuts down gracefully. The store watcher (when enabled)
// runs alongside and stops with the server.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Touch the store up front so a bad data path fails fast.
	if _, err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	var watcher *store.Watcher
	if s.cfg.WatchStore {
		w, err := store.NewWatcher(s.store)
		if err != nil {
			return fmt.Errorf("create store watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start store watcher: %w", err)
		}
		watcher = w
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Workbench listening", "addr", addr, "store", s.cfg.DataPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")
		if watcher != nil {
			watcher.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
