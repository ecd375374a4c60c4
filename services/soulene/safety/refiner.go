// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/soulene-ai/soulene/services/llm"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// refinerTemperature keeps the reviewer deliberate rather than creative.
const refinerTemperature = 0.3

// Refiner is the second-pass reviewer that rewrites the persona's draft
// under the strict rule set in refinerSystemPrompt. It drives any
// langchaingo llms.Model, so deployments can point it at a different
// model than the persona.
type Refiner struct {
	model   llms.Model
	timeout time.Duration
}

// NewRefiner creates the refiner stage around a langchaingo model.
func NewRefiner(model llms.Model) *Refiner {
	return &Refiner{model: model, timeout: CapabilityTimeout()}
}

// Refine rewrites the draft for safety and quality.
//
// Fail-open to availability, not to safety: on capability failure the
// input draft is returned unchanged. That is acceptable because the
// draft already passed through the persona's own tone rules.
func (r *Refiner) Refine(ctx context.Context, conversationContext, userMessage, draftReply string,
	isEmergency bool, preCheck datatypes.RiskAssessment) string {

	ctx, span := safetyTracer.Start(ctx, "Refiner.Refine")
	defer span.End()
	span.SetAttributes(attribute.Bool("refine.is_emergency", isEmergency))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	preCheckJSON, err := json.MarshalIndent(preCheck, "", "  ")
	if err != nil {
		preCheckJSON = []byte("null")
	}

	input := fmt.Sprintf(`
CONVERSATION CONTEXT (Last 10 messages):
%s

CURRENT USER MESSAGE:
%s

DRAFT REPLY FROM SOULENE:
%s

IS THIS AN EMERGENCY SITUATION: %t

PRE-CHECK ANALYSIS:
%s

YOUR TASK:
Analyze everything above and output ONLY the refined final reply that should be sent to the user.
Remember: Be human, be safe, be accurate. No explanations, just the refined reply.
`, conversationContext, userMessage, draftReply, isEmergency, preCheckJSON)

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, refinerSystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, input),
	}

	resp, err := r.model.GenerateContent(ctx, messages, llms.WithTemperature(refinerTemperature))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refiner capability failed")
		slog.Error("Refinement failed, keeping draft reply", "error", err)
		return draftReply
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		slog.Warn("Refiner returned empty output, keeping draft reply")
		return draftReply
	}

	return cleanRefinedReply(resp.Choices[0].Content)
}

// cleanRefinedReply strips the artifacts models habitually wrap around
// their output: a leading "refined reply:" label and surrounding quotes.
func cleanRefinedReply(reply string) string {
	reply = strings.TrimSpace(reply)

	lower := strings.ToLower(reply)
	if idx := strings.Index(lower, "refined reply:"); idx >= 0 {
		reply = strings.TrimSpace(reply[idx+len("refined reply:"):])
	}
	if len(reply) >= 2 && strings.HasPrefix(reply, `"`) && strings.HasSuffix(reply, `"`) {
		reply = reply[1 : len(reply)-1]
	}
	return reply
}

// =============================================================================
// llms.Model adapter
// =============================================================================

// clientModel adapts our LLMClient interface to langchaingo's llms.Model
// so the refiner can run against whichever backend the service was
// configured with when no native langchaingo backend is set up.
type clientModel struct {
	client llm.LLMClient
}

// WrapLLMClient adapts an LLMClient into a langchaingo llms.Model.
func WrapLLMClient(client llm.LLMClient) llms.Model {
	return &clientModel{client: client}
}

// GenerateContent implements llms.Model.
func (m *clientModel) GenerateContent(ctx context.Context, messages []llms.MessageContent,
	options ...llms.CallOption) (*llms.ContentResponse, error) {

	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	var system string
	var prompt strings.Builder
	for _, msg := range messages {
		text := flattenParts(msg.Parts)
		if msg.Role == schema.ChatMessageTypeSystem {
			system = text
			continue
		}
		prompt.WriteString(text)
		prompt.WriteString("\n")
	}

	params := llm.GenerationParams{System: system}
	if opts.Temperature > 0 {
		temp := float32(opts.Temperature)
		params.Temperature = &temp
	}

	out, err := m.client.Generate(ctx, prompt.String(), params)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: out}},
	}, nil
}

// Call implements the deprecated llms.Model single-prompt method.
func (m *clientModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func flattenParts(parts []llms.ContentPart) string {
	var b strings.Builder
	for _, part := range parts {
		if text, ok := part.(llms.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}
