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
	"time"

	"github.com/soulene-ai/soulene/services/llm"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EmergencyClassifier distinguishes active danger from passive ideation.
// It sees only the raw user message, no history: the distinction it draws
// (plan vs pain) must hold on the message alone.
type EmergencyClassifier struct {
	client  llm.LLMClient
	timeout time.Duration
}

// NewEmergencyClassifier creates the classifier around a capability client.
func NewEmergencyClassifier(client llm.LLMClient) *EmergencyClassifier {
	return &EmergencyClassifier{client: client, timeout: CapabilityTimeout()}
}

// Detect classifies the message. Fail-open: any capability or parse
// failure yields the non-emergency default. The returned assessment has
// confidence gating applied; callers use Actionable() and never inspect
// the raw positive flag.
func (c *EmergencyClassifier) Detect(ctx context.Context, message string) datatypes.EmergencyAssessment {
	ctx, span := safetyTracer.Start(ctx, "EmergencyClassifier.Detect")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Generate(ctx, message, llm.GenerationParams{System: emergencyDetectorSystemPrompt})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "emergency classifier capability failed")
		slog.Error("Emergency detection failed, treating as non-emergency", "error", err)
		return datatypes.SafeEmergencyAssessment()
	}

	assessment, err := parseEmergencyAssessment(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "emergency classifier output unparseable")
		slog.Error("Emergency detection output unparseable, treating as non-emergency", "error", err)
		return datatypes.SafeEmergencyAssessment()
	}

	assessment = gateConfidence(assessment)
	span.SetAttributes(
		attribute.Bool("emergency.detected", assessment.IsEmergency),
		attribute.String("emergency.type", assessment.EmergencyType),
		attribute.String("emergency.confidence", assessment.Confidence),
	)
	return assessment
}

// parseEmergencyAssessment decodes the classifier's JSON output.
func parseEmergencyAssessment(raw string) (datatypes.EmergencyAssessment, error) {
	assessment := datatypes.SafeEmergencyAssessment()

	cleaned := llm.ExtractJSON(raw)
	if err := json.Unmarshal([]byte(cleaned), &assessment); err != nil {
		return datatypes.SafeEmergencyAssessment(), fmt.Errorf("failed to parse emergency assessment: %w", err)
	}
	if assessment.EmergencyType == "" {
		assessment.EmergencyType = datatypes.EmergencyTypeNone
	}
	if assessment.Confidence == "" {
		assessment.Confidence = datatypes.ConfidenceLow
	}
	return assessment, nil
}

// gateConfidence downgrades low-confidence positives to non-emergency.
// Downstream logic must treat a gated assessment identically to a
// classifier negative.
func gateConfidence(a datatypes.EmergencyAssessment) datatypes.EmergencyAssessment {
	if a.IsEmergency && !a.Actionable() {
		slog.Info("Downgrading low-confidence emergency to non-emergency",
			"emergencyType", a.EmergencyType, "confidence", a.Confidence)
		return datatypes.EmergencyAssessment{
			IsEmergency:   false,
			EmergencyType: datatypes.EmergencyTypeNone,
			Confidence:    a.Confidence,
		}
	}
	return a
}
