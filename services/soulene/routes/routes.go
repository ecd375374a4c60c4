// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/soulene-ai/soulene/services/soulene/handlers"
	"github.com/soulene-ai/soulene/services/soulene/middleware"
	"github.com/soulene-ai/soulene/services/soulene/session"
)

// Defaults for the per-IP rate limiter. The pipeline holds model calls
// open for tens of seconds, so the request budget is deliberately small.
const (
	defaultRateLimit = rate.Limit(5)
	defaultBurst     = 10
)

// SetupRoutes registers the HTTP surface on the router.
func SetupRoutes(router *gin.Engine, pipeline handlers.ChatPipeline, store session.Store) {
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(defaultRateLimit, defaultBurst))

	router.GET("/", handlers.HandleRoot)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/chat", handlers.HandleChatInfo())
	router.POST("/chat", handlers.HandleChat(pipeline))
	router.POST("/chat/clear", handlers.HandleClearSession(store))
}
