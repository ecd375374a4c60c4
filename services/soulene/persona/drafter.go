// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package persona produces the first-draft reply in the Soulene voice.
// The draft is never sent to the user directly: the refiner reviews it
// and the loop guard may override it.
package persona

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/soulene-ai/soulene/services/llm"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/soulene-ai/soulene/services/soulene/safety"
)

var personaTracer = otel.Tracer("soulene.persona")

// Drafter generates the persona's draft reply from the message and the
// session history.
type Drafter struct {
	client  llm.LLMClient
	timeout time.Duration
}

// NewDrafter creates the drafter around a capability client.
func NewDrafter(client llm.LLMClient) *Drafter {
	return &Drafter{client: client, timeout: safety.CapabilityTimeout()}
}

// Draft produces a reply draft. It never fails: a capability error or
// empty model output degrades to the deterministic fallback reply so a
// dead model still yields something humane.
func (d *Drafter) Draft(ctx context.Context, message string, history []datatypes.Turn) string {
	ctx, span := personaTracer.Start(ctx, "Drafter.Draft")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	prompt := buildTranscript(message, history)
	reply, err := d.client.Generate(ctx, prompt, llm.GenerationParams{System: personaSystemPrompt})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persona capability failed")
		slog.Error("Persona draft failed, using rule-based fallback", "error", err)
		return FallbackReply(message)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		slog.Warn("Persona returned empty draft, using rule-based fallback")
		return FallbackReply(message)
	}
	return reply
}

// buildTranscript renders the history and the current message as a
// plain chat transcript, history oldest-first.
func buildTranscript(message string, history []datatypes.Turn) string {
	var b strings.Builder
	for _, turn := range history {
		if turn.Role == datatypes.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Soulene: ")
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\nSoulene:")
	return b.String()
}
