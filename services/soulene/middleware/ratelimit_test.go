// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// Tests for the rate limiting middleware.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(limit rate.Limit, burst int) *gin.Engine {
	router := gin.New()
	router.Use(RateLimit(limit, burst))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func get(router *gin.Engine) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	router := limitedRouter(rate.Limit(1), 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(router))
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	router := limitedRouter(rate.Limit(0.001), 1)

	assert.Equal(t, http.StatusOK, get(router))
	assert.Equal(t, http.StatusTooManyRequests, get(router))
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	router := limitedRouter(rate.Limit(0.001), 1)

	assert.Equal(t, http.StatusOK, get(router))
	assert.Equal(t, http.StatusTooManyRequests, get(router))

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
