// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides the Gin HTTP handlers for the Soulene
// conversation service.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soulene-ai/soulene/services/soulene/datatypes"
)

// ChatPipeline is the orchestrator surface the chat handler needs.
type ChatPipeline interface {
	Process(ctx context.Context, sessionID, message string) (datatypes.ChatResponse, error)
}

// HandleChat runs the full safety pipeline for one message.
//
// Body parsing is lenient: a malformed body is treated as an empty
// request and rejected for its missing message, not for its syntax.
// Any error surfacing from the pipeline is an unexpected failure; the
// client gets a generic 500 while the detail stays in the server log.
func HandleChat(pipeline ChatPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		var req datatypes.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			req = datatypes.ChatRequest{}
		}

		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
			return
		}
		if err := req.Validate(); err != nil {
			slog.Warn("Oversized chat message rejected", "requestId", requestID)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message too large"})
			return
		}

		sessionID := req.EnsureSessionID()
		slog.Info("Processing message", "requestId", requestID, "sessionId", sessionID)

		resp, err := pipeline.Process(c.Request.Context(), sessionID, req.Message)
		if err != nil {
			slog.Error("Chat pipeline failed", "requestId", requestID,
				"sessionId", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Something went wrong. Please try again.",
			})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// HandleChatInfo documents the chat endpoint for GET requests. It runs
// no pipeline stage.
func HandleChatInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":         "Send a POST request to this endpoint to chat with Soulene",
			"required_fields": []string{"message"},
			"optional_fields": []string{"history", "session_id"},
		})
	}
}
