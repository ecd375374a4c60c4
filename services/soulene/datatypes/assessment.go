// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// =============================================================================
// Risk Pre-Screen
// =============================================================================

// Risk levels reported by the pre-screen stage.
const (
	RiskLevelNone     = "none"
	RiskLevelLow      = "low"
	RiskLevelMedium   = "medium"
	RiskLevelHigh     = "high"
	RiskLevelCritical = "critical"
)

// Risk types reported by the pre-screen stage.
const (
	RiskTypePassiveIdeation = "passive_ideation"
	RiskTypeDecisionCrisis  = "decision_crisis"
	RiskTypeExplicitDanger  = "explicit_danger"
	RiskTypeLoopDetected    = "loop_detected"
	RiskTypeNone            = "none"
)

// Intervention types the pre-screen can request.
const (
	InterventionGrounding       = "grounding"
	InterventionDecisionSupport = "decision_support"
	InterventionEmergency       = "emergency"
	InterventionBreakLoop       = "break_loop"
	InterventionNone            = "none"
)

// RiskAssessment is the structured result of the pre-screen stage.
// Produced fresh per message and echoed back in the response envelope;
// never persisted.
type RiskAssessment struct {
	RiskLevel            string `json:"risk_level"`
	RiskType             string `json:"risk_type"`
	RequiresIntervention bool   `json:"requires_intervention"`
	InterventionType     string `json:"intervention_type"`
	ContextNotes         string `json:"context_notes"`
	BlockResponse        bool   `json:"block_response"`
}

// SafeRiskAssessment is the all-safe default the pre-screen degrades to
// on any capability failure. The pipeline deliberately fails open toward
// the later, redundant safety stages rather than failing the request.
func SafeRiskAssessment() RiskAssessment {
	return RiskAssessment{
		RiskLevel:        RiskLevelNone,
		RiskType:         RiskTypeNone,
		InterventionType: InterventionNone,
	}
}

// =============================================================================
// Emergency Detection
// =============================================================================

// Emergency types reported by the emergency classifier.
const (
	EmergencyTypeSuicide  = "suicide"
	EmergencyTypeMedical  = "medical"
	EmergencyTypeViolence = "violence"
	EmergencyTypeNone     = "none"

	// EmergencyTypeCritical tags replies forced by a pre-screen block.
	EmergencyTypeCritical = "critical"
)

// Classifier confidence buckets.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// EmergencyAssessment is the result of the emergency classifier.
type EmergencyAssessment struct {
	IsEmergency   bool   `json:"is_emergency"`
	EmergencyType string `json:"emergency_type"`
	Confidence    string `json:"confidence"`
}

// Actionable reports whether this assessment should actually be treated
// as an emergency. Low-confidence positives are downgraded: flooding a
// borderline session with hotline numbers does more harm than treating
// it as non-emergency and letting the refiner handle the tone.
func (e EmergencyAssessment) Actionable() bool {
	return e.IsEmergency && (e.Confidence == ConfidenceHigh || e.Confidence == ConfidenceMedium)
}

// SafeEmergencyAssessment is the non-emergency default the classifier
// degrades to on capability failure.
func SafeEmergencyAssessment() EmergencyAssessment {
	return EmergencyAssessment{
		IsEmergency:   false,
		EmergencyType: EmergencyTypeNone,
		Confidence:    ConfidenceLow,
	}
}

// =============================================================================
// Emergency Contacts
// =============================================================================

// EmergencyContactInfo is a resolved set of jurisdiction-specific
// emergency numbers, cached per location key for the process lifetime.
type EmergencyContactInfo struct {
	Location       string `json:"location"`
	Police         string `json:"police"`
	Medical        string `json:"medical"`
	SuicideHotline string `json:"suicide_hotline"`
	Verified       bool   `json:"verified"`
	Source         string `json:"source"`
}
