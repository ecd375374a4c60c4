// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// Tests for the loop guard.

package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoopGuard_HasGroundingLanguage(t *testing.T) {
	guard := NewLoopGuard()

	assert.True(t, guard.HasGroundingLanguage("Take a slow breath with me."))
	assert.True(t, guard.HasGroundingLanguage("Feel your FEET on the floor."))
	assert.True(t, guard.HasGroundingLanguage("Stay present, look around the room."))
	assert.False(t, guard.HasGroundingLanguage("That sounds incredibly hard."))
	assert.False(t, guard.HasGroundingLanguage(""))
}

func TestLoopGuard_ThirdGroundingReplyDeclaresLoop(t *testing.T) {
	guard := NewLoopGuard()

	window := []string{
		"Breathe with me for a second.",
		"Feel your feet on the ground.",
	}
	assert.True(t, guard.Evaluate(window, "Let's sit with your breath again."))
}

func TestLoopGuard_TwoGroundingRepliesIsNotALoop(t *testing.T) {
	guard := NewLoopGuard()

	assert.False(t, guard.Evaluate(nil, "Breathe with me for a second."))
	assert.False(t, guard.Evaluate([]string{"Breathe with me for a second."}, "Feel your feet on the ground."))
}

func TestLoopGuard_NonGroundingCandidateNeverLoops(t *testing.T) {
	guard := NewLoopGuard()

	window := []string{
		"Breathe in slowly.",
		"Notice the room around you.",
		"Feel your feet.",
	}
	assert.False(t, guard.Evaluate(window, "What would telling one person change?"))
}

func TestLoopGuard_OnlyLastThreeWindowEntriesCount(t *testing.T) {
	guard := NewLoopGuard()

	// Two grounding replies, but both outside the lookback of three.
	window := []string{
		"Breathe in slowly.",
		"Feel your feet on the floor.",
		"That sounds crushing.",
		"You're not alone in this.",
		"Who could you call tonight?",
	}
	assert.False(t, guard.Evaluate(window, "Let's try a grounding exercise."))
}

func TestLoopGuard_OneGroundingInLookbackIsNotEnough(t *testing.T) {
	guard := NewLoopGuard()

	window := []string{
		"That sounds crushing.",
		"Breathe with me.",
		"Who could you call tonight?",
	}
	assert.False(t, guard.Evaluate(window, "Feel your feet on the floor."))
}
