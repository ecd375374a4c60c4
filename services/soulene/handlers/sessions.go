// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/soulene-ai/soulene/services/soulene/session"
)

// HandleClearSession removes all state for a session. Clearing an
// unknown session succeeds; only a store failure is an error.
func HandleClearSession(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ClearRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			req = datatypes.ClearRequest{}
		}
		sessionID := req.EnsureSessionID()

		if err := store.Clear(c.Request.Context(), sessionID); err != nil {
			slog.Error("Failed to clear session", "sessionId", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}

		slog.Info("Cleared session", "sessionId", sessionID)
		c.JSON(http.StatusOK, gin.H{"status": "cleared", "session_id": sessionID})
	}
}
