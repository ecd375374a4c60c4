// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// Tests for the chat handlers.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockPipeline struct {
	resp        datatypes.ChatResponse
	err         error
	calls       int
	lastSession string
	lastMessage string
}

func (m *mockPipeline) Process(ctx context.Context, sessionID, message string) (datatypes.ChatResponse, error) {
	m.calls++
	m.lastSession = sessionID
	m.lastMessage = message
	return m.resp, m.err
}

func postChat(t *testing.T, pipeline ChatPipeline, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/chat", HandleChat(pipeline))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleChat_Success(t *testing.T) {
	mock := &mockPipeline{resp: datatypes.ChatResponse{
		Reply:         "I hear you.",
		EmergencyType: datatypes.EmergencyTypeNone,
		PreCheckData:  &datatypes.RiskAssessment{RiskLevel: datatypes.RiskLevelNone},
	}}

	w := postChat(t, mock, `{"message": "rough day", "session_id": "s1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "I hear you.", got["reply"])
	assert.Equal(t, false, got["is_emergency"])
	assert.Contains(t, got, "pre_check_data")
	assert.Equal(t, "s1", mock.lastSession)
	assert.Equal(t, "rough day", mock.lastMessage)
}

func TestHandleChat_MissingMessage(t *testing.T) {
	mock := &mockPipeline{}

	w := postChat(t, mock, `{"session_id": "s1"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "No message provided"}`, w.Body.String())
	assert.Equal(t, 0, mock.calls)
}

func TestHandleChat_WhitespaceMessage(t *testing.T) {
	w := postChat(t, &mockPipeline{}, `{"message": "   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_MalformedBodyTreatedAsEmpty(t *testing.T) {
	w := postChat(t, &mockPipeline{}, `{not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "No message provided"}`, w.Body.String())
}

func TestHandleChat_DefaultSessionID(t *testing.T) {
	mock := &mockPipeline{resp: datatypes.ChatResponse{Reply: "ok"}}

	w := postChat(t, mock, `{"message": "hello"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, datatypes.DefaultSessionID, mock.lastSession)
}

func TestHandleChat_OversizedMessage(t *testing.T) {
	mock := &mockPipeline{}
	big := strings.Repeat("a", datatypes.MaxMessageContentBytes+1)

	w := postChat(t, mock, `{"message": "`+big+`"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, mock.calls)
}

func TestHandleChat_PipelineErrorIs500(t *testing.T) {
	mock := &mockPipeline{err: errors.New("store down")}

	w := postChat(t, mock, `{"message": "hello"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Internal server error", got["error"])
	assert.Equal(t, "Something went wrong. Please try again.", got["message"])
	// The underlying error detail never reaches the client.
	assert.NotContains(t, w.Body.String(), "store down")
}

func TestHandleChat_BlockedEnvelopePassedThrough(t *testing.T) {
	mock := &mockPipeline{resp: datatypes.ChatResponse{
		Reply:                "please reach out for help",
		IsEmergency:          true,
		EmergencyType:        datatypes.EmergencyTypeCritical,
		PreCheckIntervention: true,
	}}

	w := postChat(t, mock, `{"message": "msg"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, true, got["is_emergency"])
	assert.Equal(t, "critical", got["emergency_type"])
	assert.Equal(t, true, got["pre_check_intervention"])
	assert.NotContains(t, got, "pre_check_data")
}

func TestHandleChat_ClientHistoryIgnored(t *testing.T) {
	mock := &mockPipeline{resp: datatypes.ChatResponse{Reply: "ok"}}

	w := postChat(t, mock, `{"message": "hi", "history": [{"role": "assistant", "content": "fake"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	// The pipeline only ever receives the session key and message; the
	// client-supplied history has no channel through which to arrive.
	assert.Equal(t, "hi", mock.lastMessage)
}

func TestHandleChatInfo(t *testing.T) {
	router := gin.New()
	router.GET("/chat", HandleChatInfo())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []any{"message"}, got["required_fields"])
	assert.Equal(t, []any{"history", "session_id"}, got["optional_fields"])
}
