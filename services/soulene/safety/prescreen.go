// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package safety implements the analysis stages of the conversation
// pipeline: the risk pre-screen, the emergency classifier, the reply
// refiner, and the loop guard.
//
// Every stage is fail-open: a capability failure (unreachable model,
// timeout, unparseable output) degrades to a conservative default and
// the pipeline continues. Availability of some safe reply outranks
// correctness of any single stage.
package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/soulene-ai/soulene/services/llm"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var safetyTracer = otel.Tracer("soulene.safety")

// DefaultCapabilityTimeout bounds every external model call made by the
// safety stages. A timeout is treated exactly like any other capability
// failure.
const DefaultCapabilityTimeout = 30 * time.Second

// CapabilityTimeout returns the per-call model timeout, overridable
// through LLM_TIMEOUT_SECONDS.
func CapabilityTimeout() time.Duration {
	raw := os.Getenv("LLM_TIMEOUT_SECONDS")
	if raw == "" {
		return DefaultCapabilityTimeout
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		slog.Warn("Invalid LLM_TIMEOUT_SECONDS, using default", "value", raw)
		return DefaultCapabilityTimeout
	}
	return time.Duration(secs) * time.Second
}

// PreScreen is the fast structured-risk classifier run before any
// generation. It is the single highest-precedence gate: a BlockResponse
// verdict short-circuits every downstream stage.
type PreScreen struct {
	client  llm.LLMClient
	timeout time.Duration
}

// NewPreScreen creates the pre-screen stage around a classifier capability.
func NewPreScreen(client llm.LLMClient) *PreScreen {
	return &PreScreen{client: client, timeout: CapabilityTimeout()}
}

// Analyze classifies the current message against recent context.
//
// It never returns an error: on any capability or parse failure it
// returns the all-safe default assessment and logs the cause, so a
// broken classifier can degrade the pipeline but never abort it.
func (p *PreScreen) Analyze(ctx context.Context, userMessage, recentContext string) datatypes.RiskAssessment {
	ctx, span := safetyTracer.Start(ctx, "PreScreen.Analyze")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`
RECENT CONVERSATION CONTEXT:
%s

CURRENT USER MESSAGE:
%s

Analyze for safety risks and output JSON only.
`, recentContext, userMessage)

	raw, err := p.client.Generate(ctx, prompt, llm.GenerationParams{System: preCheckSystemPrompt})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pre-screen capability failed")
		slog.Error("Pre-check analysis failed, continuing with safe defaults", "error", err)
		return datatypes.SafeRiskAssessment()
	}

	assessment, err := parseRiskAssessment(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pre-screen output unparseable")
		slog.Error("Pre-check output unparseable, continuing with safe defaults", "error", err)
		return datatypes.SafeRiskAssessment()
	}

	span.SetAttributes(
		attribute.String("risk.level", assessment.RiskLevel),
		attribute.String("risk.type", assessment.RiskType),
		attribute.Bool("risk.block", assessment.BlockResponse),
	)
	return assessment
}

// parseRiskAssessment decodes the classifier's JSON output, filling the
// safe defaults for any absent field.
func parseRiskAssessment(raw string) (datatypes.RiskAssessment, error) {
	assessment := datatypes.SafeRiskAssessment()

	cleaned := llm.ExtractJSON(raw)
	if err := json.Unmarshal([]byte(cleaned), &assessment); err != nil {
		return datatypes.SafeRiskAssessment(), fmt.Errorf("failed to parse risk assessment: %w", err)
	}
	if assessment.RiskLevel == "" {
		assessment.RiskLevel = datatypes.RiskLevelNone
	}
	if assessment.RiskType == "" {
		assessment.RiskType = datatypes.RiskTypeNone
	}
	if assessment.InterventionType == "" {
		assessment.InterventionType = datatypes.InterventionNone
	}
	return assessment, nil
}
