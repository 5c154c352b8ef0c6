// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import "time"

type WorkbenchConfig struct {
	// Server: HTTP listener settings
	Server ServerConfig `yaml:"server"`

	// Store: flat-file comment store location
	Store StoreConfig `yaml:"store"`

	// Model: OpenAI-compatible backend settings
	Model ModelConfig `yaml:"model"`

	// Telemetry: trace and metric exporter selection
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging: slog output settings
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"` // e.g. 0.0.0.0
	Port int    `yaml:"port"` // e.g. 8501
}

type StoreConfig struct {
	Path  string `yaml:"path"`  // e.g. data/comments_store.json
	Watch bool   `yaml:"watch"` // warn when the file changes outside the service
}

type ModelConfig struct {
	Name        string        `yaml:"name"`               // e.g. gpt-4o-mini
	BaseURL     string        `yaml:"base_url,omitempty"` // OpenAI-compatible endpoint override
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TelemetryConfig struct {
	// TraceExporter can be "otlp", "stdout", or "none".
	TraceExporter string `yaml:"trace_exporter"`
	// MetricExporter can be "prometheus", "stdout", or "none".
	MetricExporter string `yaml:"metric_exporter"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty"`
	Environment    string `yaml:"environment"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() WorkbenchConfig {
	return WorkbenchConfig{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8501,
		},
		Store: StoreConfig{
			Path:  "data/comments_store.json",
			Watch: true,
		},
		Model: ModelConfig{
			Name:        "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     45 * time.Second,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			Environment:    "development",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
