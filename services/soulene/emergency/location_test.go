// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// Tests for location detection.

package emergency

import (
	"testing"

	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/stretchr/testify/assert"
)

func userTurn(content string) datatypes.Turn {
	return datatypes.Turn{Role: datatypes.RoleUser, Content: content}
}

func assistantTurn(content string) datatypes.Turn {
	return datatypes.Turn{Role: datatypes.RoleAssistant, Content: content}
}

func TestDetectLocation_LiveIn(t *testing.T) {
	loc, ok := DetectLocation([]datatypes.Turn{userTurn("I live in Mumbai and it's been rough")})
	assert.True(t, ok)
	assert.Equal(t, "Mumbai", loc)
}

func TestDetectLocation_From(t *testing.T) {
	loc, ok := DetectLocation([]datatypes.Turn{userTurn("I'm from Delhi originally")})
	assert.True(t, ok)
	assert.Equal(t, "Delhi", loc)
}

func TestDetectLocation_TrimsPunctuation(t *testing.T) {
	loc, ok := DetectLocation([]datatypes.Turn{userTurn("I am in Pune.")})
	assert.True(t, ok)
	assert.Equal(t, "Pune", loc)
}

func TestDetectLocation_FirstMatchWins(t *testing.T) {
	history := []datatypes.Turn{
		userTurn("I live in Chennai"),
		userTurn("but I am in Bangalore right now"),
	}
	loc, ok := DetectLocation(history)
	assert.True(t, ok)
	assert.Equal(t, "Chennai", loc)
}

func TestDetectLocation_IgnoresAssistantTurns(t *testing.T) {
	history := []datatypes.Turn{
		assistantTurn("Are you calling from Mumbai?"),
		userTurn("everything hurts"),
	}
	_, ok := DetectLocation(history)
	assert.False(t, ok)
}

func TestDetectLocation_NoCue(t *testing.T) {
	_, ok := DetectLocation([]datatypes.Turn{userTurn("I can't sleep anymore")})
	assert.False(t, ok)
}

func TestDetectLocation_EmptyHistory(t *testing.T) {
	_, ok := DetectLocation(nil)
	assert.False(t, ok)
}
