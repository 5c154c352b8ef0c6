// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm wraps the external text-generation provider.
//
// The workbench makes exactly one provider call per pipeline stage: a
// two-role (system + user) chat completion under a fixed timeout, no
// retries, no streaming. Failures surface as *UpstreamError so handlers
// can map them to 502 responses with the provider detail intact.
package llm

import "context"

// Client is the text-generation contract every pipeline stage composes.
//
// The API key travels with each call because callers supply it per
// request; the service never stores credentials.
type Client interface {
	Generate(ctx context.Context, key *SealedKey, system, user string) (string, error)
}

// UpstreamError reports a failed or unusable provider interaction.
//
// Message is the full caller-facing text and is part of the HTTP
// contract: it surfaces verbatim in 502 bodies. Status carries the
// provider HTTP status when one was received, 0 otherwise.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}
