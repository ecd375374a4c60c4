// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// Tests for the contact resolver and formatter.

package emergency

import (
	"context"
	"errors"
	"testing"

	"github.com/soulene-ai/soulene/services/llm"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLLM implements llm.LLMClient for resolver testing.
type mockLLM struct {
	response string
	err      error
	calls    int
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	m.calls++
	return m.response, m.err
}

func TestResolver_ResolvesAndParses(t *testing.T) {
	mock := &mockLLM{response: `{
		"location": "Germany",
		"police": "110",
		"medical": "112",
		"suicide_hotline": "0800 111 0 111",
		"verified": true,
		"source": "model knowledge"
	}`}
	r := NewResolver(mock)

	got := r.Resolve(context.Background(), "Germany")
	assert.Equal(t, "Germany", got.Location)
	assert.Equal(t, "110", got.Police)
	assert.Equal(t, "112", got.Medical)
	assert.True(t, got.Verified)
}

func TestResolver_CacheHitAvoidsSecondCall(t *testing.T) {
	mock := &mockLLM{response: `{"location": "Germany", "police": "110", "medical": "112"}`}
	r := NewResolver(mock)

	first := r.Resolve(context.Background(), "Germany")
	second := r.Resolve(context.Background(), "Germany")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.calls)
}

func TestResolver_FailureCachesFallback(t *testing.T) {
	mock := &mockLLM{err: errors.New("model unreachable")}
	r := NewResolver(mock)

	got := r.Resolve(context.Background(), "Atlantis")
	assert.Equal(t, "Atlantis", got.Location)
	assert.Equal(t, "100", got.Police)
	assert.Equal(t, "102 or 108", got.Medical)
	assert.False(t, got.Verified)

	// The fallback record is cached too: no retry storm on a dead model.
	r.Resolve(context.Background(), "Atlantis")
	assert.Equal(t, 1, mock.calls)
}

func TestResolver_EmptyLocationUsesDefaultKey(t *testing.T) {
	mock := &mockLLM{response: `{"location": "India", "police": "100", "medical": "102 or 108"}`}
	r := NewResolver(mock)

	got := r.Resolve(context.Background(), "")
	assert.Equal(t, "India", got.Location)

	r.Resolve(context.Background(), "")
	assert.Equal(t, 1, mock.calls)
}

func TestResolver_NoNumbersFallsBack(t *testing.T) {
	mock := &mockLLM{response: `{"location": "India"}`}
	r := NewResolver(mock)

	got := r.Resolve(context.Background(), "")
	assert.Equal(t, "100", got.Police)
	assert.Equal(t, "default", got.Source)
}

func TestFallbackFor_KnownJurisdiction(t *testing.T) {
	got := FallbackFor("UK")
	assert.Equal(t, "999", got.Police)
	assert.Equal(t, "Samaritans 116 123", got.SuicideHotline)
}

func TestFallbackFor_UnknownRelabelsDefault(t *testing.T) {
	got := FallbackFor("Narnia")
	assert.Equal(t, "Narnia", got.Location)
	assert.Equal(t, "100", got.Police)
	assert.Equal(t, "AASRA 9820466726", got.SuicideHotline)
}

func TestFallbackTableLoaded(t *testing.T) {
	require.Contains(t, fallbackContacts, "india")
	require.Contains(t, fallbackContacts, "usa")
	require.Contains(t, fallbackContacts, "uk")
}

func TestFormatContacts_AllFields(t *testing.T) {
	got := FormatContacts(datatypes.EmergencyContactInfo{
		Police:         "100",
		Medical:        "102 or 108",
		SuicideHotline: "AASRA 9820466726",
	})
	assert.Equal(t, "102 or 108 (ambulance) or 100 (police) or AASRA 9820466726 (crisis line)", got)
}

func TestFormatContacts_HotlineNotAvailable(t *testing.T) {
	got := FormatContacts(datatypes.EmergencyContactInfo{
		Police:         "911",
		Medical:        "911",
		SuicideHotline: "not available",
	})
	assert.Equal(t, "911 (ambulance) or 911 (police)", got)
}

func TestFormatContacts_EmptyRecordUsesInternationalFallback(t *testing.T) {
	got := FormatContacts(datatypes.EmergencyContactInfo{})
	assert.Equal(t, "112 (international emergency)", got)
}
