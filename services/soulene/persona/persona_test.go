// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// Tests for the persona drafter and its fallback tiers.

package persona

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/soulene-ai/soulene/services/llm"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/stretchr/testify/assert"
)

type mockLLM struct {
	response   string
	err        error
	lastPrompt string
	lastSystem string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	m.lastPrompt = prompt
	m.lastSystem = params.System
	return m.response, m.err
}

func TestDrafter_ReturnsModelDraft(t *testing.T) {
	mock := &mockLLM{response: "That fog is hell. But you're reaching out here, that's a step."}
	d := NewDrafter(mock)

	got := d.Draft(context.Background(), "can't think straight", nil)
	assert.Equal(t, "That fog is hell. But you're reaching out here, that's a step.", got)
	assert.Contains(t, mock.lastSystem, "Soulene")
}

func TestDrafter_TranscriptCarriesHistoryAndMessage(t *testing.T) {
	mock := &mockLLM{response: "ok"}
	d := NewDrafter(mock)

	history := []datatypes.Turn{
		{Role: datatypes.RoleUser, Content: "rough week"},
		{Role: datatypes.RoleAssistant, Content: "That sounds heavy."},
	}
	d.Draft(context.Background(), "still bad", history)

	assert.Contains(t, mock.lastPrompt, "User: rough week")
	assert.Contains(t, mock.lastPrompt, "Soulene: That sounds heavy.")
	assert.True(t, strings.HasSuffix(mock.lastPrompt, "User: still bad\nSoulene:"))
}

func TestDrafter_CapabilityFailureUsesFallback(t *testing.T) {
	mock := &mockLLM{err: errors.New("model unreachable")}
	d := NewDrafter(mock)

	got := d.Draft(context.Background(), "so tired of all of it", nil)
	assert.Contains(t, got, "That sounds brutal")
}

func TestDrafter_EmptyDraftUsesFallback(t *testing.T) {
	mock := &mockLLM{response: "   "}
	d := NewDrafter(mock)

	got := d.Draft(context.Background(), "hello", nil)
	assert.NotEmpty(t, got)
	assert.Contains(t, got, "I'm here with you")
}

func TestFallbackReply_DangerTier(t *testing.T) {
	got := FallbackReply("I have pills ready and I'm done")
	assert.Contains(t, got, EmergencyNumberPlaceholder)
	assert.Contains(t, got, "Urgent")
}

func TestFallbackReply_ExhaustionTierMirrorsFirstLine(t *testing.T) {
	got := FallbackReply("I'm so exhausted I can't see straight\nsecond line ignored")
	assert.True(t, strings.HasPrefix(got, "I'm so exhausted I can't see straight..."))
	assert.Contains(t, got, "That sounds brutal")
	assert.NotContains(t, got, "second line")
}

func TestFallbackReply_ExhaustionTierShortMessage(t *testing.T) {
	got := FallbackReply("done")
	assert.True(t, strings.HasPrefix(got, "You're overwhelmed..."))
}

func TestFallbackReply_DefaultTier(t *testing.T) {
	got := FallbackReply("my cat died last week")
	assert.True(t, strings.HasPrefix(got, "my cat died last week..."))
	assert.Contains(t, got, "I'm here with you")
}

func TestFallbackReply_EmptyMessage(t *testing.T) {
	got := FallbackReply("")
	assert.True(t, strings.HasPrefix(got, "That sounds hard..."))
}

func TestFallbackReply_FragmentCappedAt120Runes(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := FallbackReply(long)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("a", 120)+"..."))
	assert.NotContains(t, got, strings.Repeat("a", 121))
}

func TestSubstituteEmergencyNumber(t *testing.T) {
	in := "Urgent - call " + EmergencyNumberPlaceholder + " now."
	got := SubstituteEmergencyNumber(in, "102 or 108 (ambulance) or 100 (police)")
	assert.Equal(t, "Urgent - call 102 or 108 (ambulance) or 100 (police) now.", got)
}

func TestSubstituteEmergencyNumber_EmptyContactsLeavesPlaceholder(t *testing.T) {
	in := "call " + EmergencyNumberPlaceholder
	assert.Equal(t, in, SubstituteEmergencyNumber(in, ""))
}

func TestSubstituteEmergencyNumber_NoPlaceholderNoChange(t *testing.T) {
	assert.Equal(t, "plain reply", SubstituteEmergencyNumber("plain reply", "100"))
}
