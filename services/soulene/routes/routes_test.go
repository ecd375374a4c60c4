// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// Tests for route registration.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/soulene-ai/soulene/services/soulene/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPipeline struct{}

func (stubPipeline) Process(ctx context.Context, sessionID, message string) (datatypes.ChatResponse, error) {
	return datatypes.ChatResponse{Reply: "ok"}, nil
}

func newRouter() *gin.Engine {
	router := gin.New()
	SetupRoutes(router, stubPipeline{}, session.NewMemoryStore())
	return router
}

func TestSetupRoutes_Surface(t *testing.T) {
	router := newRouter()

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/chat", "", http.StatusOK},
		{http.MethodPost, "/chat", `{"message": "hi"}`, http.StatusOK},
		{http.MethodPost, "/chat/clear", `{}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestSetupRoutes_CORSPreflight(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
