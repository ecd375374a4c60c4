// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the Soulene service.
//
// This file contains the request and response types for the chat endpoints.
// Assessment types produced by the safety stages live in assessment.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single user message.
	// Checked in bytes, not runes, to bound memory on hostile payloads.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// DefaultSessionID is used when a request does not name a session.
	DefaultSessionID = "default"
)

// Conversation roles as stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes rejects string fields larger than MaxMessageContentBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	content := fl.Field().String()
	return len(content) <= MaxMessageContentBytes
}

// =============================================================================
// Conversation Turns
// =============================================================================

// Turn is one message in a session's history, tagged by speaker role.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// =============================================================================
// Chat Request / Response Types
// =============================================================================

// ChatRequest is the body of POST /chat.
//
// History is accepted for client compatibility but ignored: the
// server-side session state takes precedence, so a client cannot
// rewrite the conversation record the safety stages reason over.
type ChatRequest struct {
	Message   string `json:"message" validate:"maxbytes"`
	History   []Turn `json:"history"`
	SessionID string `json:"session_id"`
}

// Validate checks size limits on the request. Presence of Message is
// checked separately by the handler so the wire error stays exact.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// EnsureSessionID returns the session key for this request, defaulting
// when the client omitted one.
func (r *ChatRequest) EnsureSessionID() string {
	if r.SessionID == "" {
		return DefaultSessionID
	}
	return r.SessionID
}

// ChatResponse is the envelope returned by POST /chat.
//
// PreCheckData is present on the normal path and omitted when the
// pre-screen blocked the reply; PreCheckIntervention is the inverse.
type ChatResponse struct {
	Reply                string          `json:"reply"`
	IsEmergency          bool            `json:"is_emergency"`
	EmergencyType        string          `json:"emergency_type"`
	PreCheckData         *RiskAssessment `json:"pre_check_data,omitempty"`
	LoopDetected         bool            `json:"loop_detected"`
	PreCheckIntervention bool            `json:"pre_check_intervention,omitempty"`
}

// ClearRequest is the body of POST /chat/clear.
type ClearRequest struct {
	SessionID string `json:"session_id"`
}

// EnsureSessionID returns the session key to clear, defaulting when absent.
func (r *ClearRequest) EnsureSessionID() string {
	if r.SessionID == "" {
		return DefaultSessionID
	}
	return r.SessionID
}
