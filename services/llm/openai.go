// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat-completions model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// DefaultTimeout bounds every provider call wall-clock.
const DefaultTimeout = 45 * time.Second

// DefaultTemperature keeps stage output stable across runs.
const DefaultTemperature float32 = 0.2

// OpenAIConfig configures the OpenAI-backed Client.
type OpenAIConfig struct {
	// Model is the chat-completions model name. Default: DefaultModel.
	Model string

	// BaseURL overrides the API endpoint. Empty uses the provider
	// default; tests point this at a local fake.
	BaseURL string

	// Timeout bounds each call. Default: DefaultTimeout.
	Timeout time.Duration

	// Temperature for every completion. Zero uses DefaultTemperature.
	Temperature float32
}

// OpenAIClient calls the OpenAI chat-completions API.
//
// The HTTP client (and its timeout) is shared across calls; the API key
// is injected per call because every request carries its own credential.
// Stateless between calls, no retries.
type OpenAIClient struct {
	model       string
	baseURL     string
	temperature float32
	httpClient  *http.Client
}

// NewOpenAIClient creates a client with the given configuration.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	slog.Info("Initializing OpenAI client", "model", cfg.Model, "timeout", cfg.Timeout)
	return &OpenAIClient{
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate implements the Client interface.
//
// It sends one system+user chat completion and returns the trimmed
// content of the first choice. All failure modes map to *UpstreamError:
// provider non-2xx, transport failure, and a response with no choices.
func (o *OpenAIClient) Generate(ctx context.Context, key *SealedKey, system, user string) (string, error) {
	apiKey, err := key.Open()
	if err != nil {
		return "", &UpstreamError{Message: fmt.Sprintf("OpenAI request failed: %v", err)}
	}

	conf := openai.DefaultConfig(apiKey)
	conf.HTTPClient = o.httpClient
	if o.baseURL != "" {
		conf.BaseURL = o.baseURL
	}
	client := openai.NewClientWithConfig(conf)

	slog.Debug("Generating text via OpenAI", "model", o.model)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return "", &UpstreamError{Message: fmt.Sprintf("Unexpected OpenAI response: %+v", resp)}
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// mapOpenAIError converts go-openai errors into the caller-facing
// *UpstreamError taxonomy. The message formats are part of the HTTP
// contract and must not change casually.
func mapOpenAIError(err error) *UpstreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		slog.Error("OpenAI API call failed", "status", apiErr.HTTPStatusCode, "error", apiErr.Message)
		return &UpstreamError{
			Status:  apiErr.HTTPStatusCode,
			Message: fmt.Sprintf("OpenAI HTTPError %d: %s", apiErr.HTTPStatusCode, apiErr.Message),
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		slog.Error("OpenAI API call failed", "status", reqErr.HTTPStatusCode, "error", reqErr.Err)
		return &UpstreamError{
			Status:  reqErr.HTTPStatusCode,
			Message: fmt.Sprintf("OpenAI HTTPError %d: %v", reqErr.HTTPStatusCode, reqErr.Err),
		}
	}

	slog.Error("OpenAI request failed", "error", err)
	return &UpstreamError{Message: fmt.Sprintf("OpenAI request failed: %v", err)}
}
