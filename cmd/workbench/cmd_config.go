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
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/CommentWorkbench/cmd/workbench/config"
	"github.com/AleutianAI/CommentWorkbench/pkg/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved workbench configuration",
	Run:   runConfig,
}

func runConfig(cmd *cobra.Command, args []string) {
	path, err := config.Path()
	if err != nil {
		ux.Errorf("could not resolve the config path: %v", err)
		return
	}
	ux.Titlef("config file: %s", path)

	data, err := yaml.Marshal(config.Global)
	if err != nil {
		ux.Errorf("could not render the config: %v", err)
		return
	}
	ux.Boxf("%s", string(data))
}
