// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Soulene server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleRoot lists the service endpoints.
func HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Soulene conversation safety service",
		"endpoints": gin.H{
			"health": "GET /health",
			"chat":   "POST /chat",
			"clear":  "POST /chat/clear",
		},
	})
}
