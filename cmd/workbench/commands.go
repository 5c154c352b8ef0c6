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
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CommentWorkbench/cmd/workbench/config"
	"github.com/AleutianAI/CommentWorkbench/pkg/ux"
)

// Version is set at build time via ldflags.
var Version = "dev"

// --- Global Command Variables ---
var (
	servePort     int
	serveDataPath string
	serveNoWatch  bool

	rootCmd = &cobra.Command{
		Use:   "workbench",
		Short: "A cli to manage the AI comments workbench service",
		Long: `Workbench collects controller comments, runs them through an
				OpenAI-compatible model for review, translation, consolidation
				and summarization, and persists them to a flat JSON file store.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.Load(); err != nil {
				log.Fatalf("Error loading the workbench config: %v", err)
			}
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the workbench version",
		Run: func(cmd *cobra.Command, args []string) {
			ux.Titlef("workbench %s", Version)
		},
	}
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override the listen port from the config")
	serveCmd.Flags().StringVar(&serveDataPath, "data", "", "Override the comment store path from the config")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable the store file watcher")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
