// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package services contains the pipeline orchestrator: the ordered
// sequence of safety, generation, and refinement stages applied to every
// inbound message.
//
// The ordering contract is the design. It is expressed as an explicit
// finite-state machine so an illegal ordering (drafting after a block,
// refining before drafting) is unrepresentable rather than merely
// untested.
package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/soulene-ai/soulene/services/soulene/emergency"
	"github.com/soulene-ai/soulene/services/soulene/observability"
	"github.com/soulene-ai/soulene/services/soulene/persona"
	"github.com/soulene-ai/soulene/services/soulene/safety"
	"github.com/soulene-ai/soulene/services/soulene/session"
)

var pipelineTracer = otel.Tracer("soulene.pipeline")

// ContextWindowSize is how many recent turns the classifiers and the
// refiner see.
const ContextWindowSize = 10

// BlockedReply is the fixed crisis referral sent when the pre-screen
// blocks generation outright.
const BlockedReply = "I'm really worried about you right now. Can you reach out to someone who can help? Call emergency services or a crisis hotline."

// =============================================================================
// Stage interfaces
// =============================================================================

// The pipeline depends on narrow per-stage interfaces so tests can count
// calls and deployments can swap stage implementations independently.

type riskScreener interface {
	Analyze(ctx context.Context, userMessage, recentContext string) datatypes.RiskAssessment
}

type emergencyDetector interface {
	Detect(ctx context.Context, message string) datatypes.EmergencyAssessment
}

type contactResolver interface {
	Resolve(ctx context.Context, location string) datatypes.EmergencyContactInfo
}

type replyDrafter interface {
	Draft(ctx context.Context, message string, history []datatypes.Turn) string
}

type replyRefiner interface {
	Refine(ctx context.Context, conversationContext, userMessage, draftReply string,
		isEmergency bool, preCheck datatypes.RiskAssessment) string
}

type loopDecider interface {
	Evaluate(window []string, candidate string) bool
}

// =============================================================================
// State machine
// =============================================================================

type pipelineState int

const (
	stateReceived pipelineState = iota
	statePreScreened
	stateBlocked
	stateEmergencyChecked
	stateDrafted
	stateRefined
	stateLoopChecked
	stateFinalized
)

// execution is the per-message working set threaded through the states.
type execution struct {
	sessionID string
	message   string

	recentContext string
	preCheck      datatypes.RiskAssessment
	assessment    datatypes.EmergencyAssessment
	contacts      string
	reply         string
	loopDetected  bool
	blocked       bool
}

// Pipeline sequences the stages for one inbound message at a time and
// assembles the response envelope.
type Pipeline struct {
	store    session.Store
	screener riskScreener
	detector emergencyDetector
	contacts contactResolver
	drafter  replyDrafter
	refiner  replyRefiner
	guard    loopDecider
	metrics  *observability.PipelineMetrics
}

// NewPipeline wires the orchestrator. metrics may be nil.
func NewPipeline(store session.Store, screener riskScreener, detector emergencyDetector,
	contacts contactResolver, drafter replyDrafter, refiner replyRefiner,
	guard loopDecider, metrics *observability.PipelineMetrics) *Pipeline {

	return &Pipeline{
		store:    store,
		screener: screener,
		detector: detector,
		contacts: contacts,
		drafter:  drafter,
		refiner:  refiner,
		guard:    guard,
		metrics:  metrics,
	}
}

// Process runs the full pipeline for one user message and returns the
// response envelope. It returns an error only for session store
// failures; every capability failure has already been degraded inside
// its stage.
func (p *Pipeline) Process(ctx context.Context, sessionID, message string) (datatypes.ChatResponse, error) {
	ctx, span := pipelineTracer.Start(ctx, "Pipeline.Process")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	started := time.Now()

	if err := p.store.AppendTurn(ctx, sessionID, datatypes.RoleUser, message); err != nil {
		return datatypes.ChatResponse{}, err
	}

	recentContext, err := p.store.RecentContext(ctx, sessionID, ContextWindowSize)
	if err != nil {
		slog.Error("Recent context unavailable, continuing without it",
			"sessionId", sessionID, "error", err)
		recentContext = ""
	}

	ex := &execution{sessionID: sessionID, message: message, recentContext: recentContext}

	for st := stateReceived; st != stateFinalized; {
		switch st {
		case stateReceived:
			ex.preCheck = p.screener.Analyze(ctx, ex.message, ex.recentContext)
			slog.Info("Pre-check complete", "sessionId", sessionID,
				"riskLevel", ex.preCheck.RiskLevel, "riskType", ex.preCheck.RiskType)
			st = statePreScreened

		case statePreScreened:
			if ex.preCheck.BlockResponse {
				st = stateBlocked
				break
			}
			p.checkEmergency(ctx, ex)
			st = stateEmergencyChecked

		case stateBlocked:
			slog.Warn("Response blocked by pre-check", "sessionId", sessionID,
				"riskLevel", ex.preCheck.RiskLevel)
			ex.blocked = true
			ex.reply = BlockedReply
			st = stateFinalized

		case stateEmergencyChecked:
			history, err := p.store.History(ctx, sessionID)
			if err != nil {
				slog.Error("History unavailable, drafting without it",
					"sessionId", sessionID, "error", err)
			}
			draft := p.drafter.Draft(ctx, ex.message, history)
			ex.reply = persona.SubstituteEmergencyNumber(draft, ex.contacts)
			st = stateDrafted

		case stateDrafted:
			ex.reply = p.refiner.Refine(ctx, ex.recentContext, ex.message, ex.reply,
				ex.assessment.IsEmergency, ex.preCheck)
			st = stateRefined

		case stateRefined:
			loop, err := p.store.DetectAndTrackLoop(ctx, sessionID, ex.reply, p.guard.Evaluate)
			if err != nil {
				slog.Error("Loop tracking unavailable, skipping",
					"sessionId", sessionID, "error", err)
				loop = false
			}
			if loop {
				ex.loopDetected = true
				ex.reply = safety.BreakLoopReply
			}
			st = stateLoopChecked

		case stateLoopChecked:
			st = stateFinalized
		}
	}

	// Finalized: the delivered reply joins history regardless of the
	// path that produced it.
	if err := p.store.AppendTurn(ctx, sessionID, datatypes.RoleAssistant, ex.reply); err != nil {
		slog.Error("Failed to record assistant turn", "sessionId", sessionID, "error", err)
	}

	resp := p.envelope(ex)
	p.record(ex, time.Since(started))
	span.SetAttributes(
		attribute.Bool("pipeline.blocked", ex.blocked),
		attribute.Bool("pipeline.emergency", resp.IsEmergency),
		attribute.Bool("pipeline.loop_detected", ex.loopDetected),
	)
	return resp, nil
}

// checkEmergency runs the classifier and, for actionable detections,
// resolves location and emergency contacts.
func (p *Pipeline) checkEmergency(ctx context.Context, ex *execution) {
	ex.assessment = p.detector.Detect(ctx, ex.message)
	slog.Info("Emergency detection complete", "sessionId", ex.sessionID,
		"isEmergency", ex.assessment.IsEmergency, "emergencyType", ex.assessment.EmergencyType,
		"confidence", ex.assessment.Confidence)

	if !ex.assessment.IsEmergency {
		return
	}
	p.metrics.RecordEmergency(ex.assessment.EmergencyType)

	location, ok, err := p.store.Location(ctx, ex.sessionID)
	if err != nil {
		slog.Error("Location lookup failed", "sessionId", ex.sessionID, "error", err)
	}
	if !ok {
		history, err := p.store.History(ctx, ex.sessionID)
		if err == nil {
			if detected, found := emergency.DetectLocation(history); found {
				location = detected
				if err := p.store.SetLocation(ctx, ex.sessionID, detected); err != nil {
					slog.Error("Failed to cache location", "sessionId", ex.sessionID, "error", err)
				}
			}
		}
	}

	info := p.contacts.Resolve(ctx, location)
	ex.contacts = emergency.FormatContacts(info)
	slog.Info("Emergency contacts resolved", "sessionId", ex.sessionID,
		"location", info.Location, "contacts", ex.contacts)
}

// envelope assembles the HTTP response body for a finished execution.
func (p *Pipeline) envelope(ex *execution) datatypes.ChatResponse {
	if ex.blocked {
		return datatypes.ChatResponse{
			Reply:                ex.reply,
			IsEmergency:          true,
			EmergencyType:        datatypes.EmergencyTypeCritical,
			PreCheckIntervention: true,
		}
	}
	preCheck := ex.preCheck
	return datatypes.ChatResponse{
		Reply:         ex.reply,
		IsEmergency:   ex.assessment.IsEmergency,
		EmergencyType: ex.assessment.EmergencyType,
		PreCheckData:  &preCheck,
		LoopDetected:  ex.loopDetected,
	}
}

func (p *Pipeline) record(ex *execution, elapsed time.Duration) {
	outcome := observability.OutcomeOK
	switch {
	case ex.blocked:
		outcome = observability.OutcomeBlocked
	case ex.loopDetected:
		outcome = observability.OutcomeLoopBroken
	}
	p.metrics.RecordMessage(outcome, elapsed)
}
