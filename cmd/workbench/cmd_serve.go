// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CommentWorkbench/cmd/workbench/config"
	"github.com/AleutianAI/CommentWorkbench/pkg/logging"
	"github.com/AleutianAI/CommentWorkbench/pkg/ux"
	"github.com/AleutianAI/CommentWorkbench/services/workbench"
	"github.com/AleutianAI/CommentWorkbench/services/workbench/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workbench HTTP service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := config.Global

	closeLogs, err := logging.Setup(logging.Config{
		Level:   cfg.Logging.Level,
		LogDir:  cfg.Logging.Dir,
		Service: workbench.ServiceName,
		JSON:    cfg.Logging.JSON,
	})
	if err != nil {
		ux.Errorf("logging setup failed: %v", err)
		return
	}
	defer func() { _ = closeLogs() }()

	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    workbench.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Telemetry.Environment,
		TraceExporter:  cfg.Telemetry.TraceExporter,
		MetricExporter: cfg.Telemetry.MetricExporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		ux.Errorf("telemetry init failed: %v", err)
		return
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	serverCfg := workbench.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		DataPath:    cfg.Store.Path,
		Model:       cfg.Model.Name,
		BaseURL:     cfg.Model.BaseURL,
		Timeout:     cfg.Model.Timeout,
		Temperature: cfg.Model.Temperature,
		WatchStore:  cfg.Store.Watch,
	}
	if servePort != 0 {
		serverCfg.Port = servePort
	}
	if serveDataPath != "" {
		serverCfg.DataPath = serveDataPath
	}
	if serveNoWatch {
		serverCfg.WatchStore = false
	}

	srv, err := workbench.New(serverCfg)
	if err != nil {
		ux.Errorf("server setup failed: %v", err)
		return
	}

	ux.Titlef("workbench listening on %s:%d", serverCfg.Host, serverCfg.Port)
	ux.Mutedf("comment store: %s", serverCfg.DataPath)

	if err := srv.Run(ctx); err != nil {
		ux.Errorf("server exited: %v", err)
	}
}
