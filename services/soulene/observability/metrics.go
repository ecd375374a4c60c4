// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the conversation
// pipeline.
//
// # Description
//
// Metrics cover message outcomes, end-to-end pipeline latency, detected
// emergencies by type, and loop-guard interventions. They are exposed on
// the /metrics endpoint and are safe for concurrent use via Prometheus's
// internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "soulene"

const pipelineSubsystem = "pipeline"

// Message outcome label values.
const (
	OutcomeOK         = "ok"
	OutcomeBlocked    = "blocked"
	OutcomeLoopBroken = "loop_broken"
)

// PipelineMetrics holds the pipeline's Prometheus metrics. A nil
// *PipelineMetrics is valid and records nothing, which keeps tests and
// offline tools free of registry setup.
type PipelineMetrics struct {
	// messagesTotal counts processed messages by outcome.
	// Labels: outcome (ok, blocked, loop_broken)
	messagesTotal *prometheus.CounterVec

	// messageDurationSeconds measures end-to-end pipeline latency.
	messageDurationSeconds prometheus.Histogram

	// emergenciesTotal counts actionable emergency detections.
	// Labels: type (suicide, medical, violence)
	emergenciesTotal *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers the pipeline metrics on the
// given registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: pipelineSubsystem,
			Name:      "messages_total",
			Help:      "Messages processed by the pipeline, by outcome.",
		}, []string{"outcome"}),
		messageDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: pipelineSubsystem,
			Name:      "message_duration_seconds",
			Help:      "End-to-end pipeline latency per message.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		emergenciesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: pipelineSubsystem,
			Name:      "emergencies_total",
			Help:      "Actionable emergency detections, by type.",
		}, []string{"type"}),
	}
}

// RecordMessage records one processed message with its outcome and latency.
func (m *PipelineMetrics) RecordMessage(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(outcome).Inc()
	m.messageDurationSeconds.Observe(elapsed.Seconds())
}

// RecordEmergency records one actionable emergency detection.
func (m *PipelineMetrics) RecordEmergency(emergencyType string) {
	if m == nil {
		return
	}
	m.emergenciesTotal.WithLabelValues(emergencyType).Inc()
}
