// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package safety

import (
	"log/slog"
	"strings"
)

// BreakLoopReply replaces a refined reply when the loop guard fires.
const BreakLoopReply = "Let's try something different. What's one thing you could do right now, just for the next five minutes?"

// groundingKeywords are the lexical markers of a grounding-style
// intervention (breath work, presence anchoring).
var groundingKeywords = []string{"breathe", "breath", "ground", "present", "room", "sit", "feet"}

// loopLookback is how many tracked replies the guard examines.
const loopLookback = 3

// loopThreshold is how many of those must already be grounding-flavored
// before one more grounding reply counts as a loop.
const loopThreshold = 2

// LoopGuard detects repeated grounding interventions across recent
// assistant replies. The reply window itself lives in the session store;
// the guard is a pure decision function the store runs under the
// session lock.
type LoopGuard struct {
	keywords []string
}

// NewLoopGuard creates a guard with the default grounding keyword set.
func NewLoopGuard() *LoopGuard {
	return &LoopGuard{keywords: groundingKeywords}
}

// HasGroundingLanguage reports whether the text uses any grounding keyword.
func (g *LoopGuard) HasGroundingLanguage(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range g.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Evaluate declares a loop when the candidate reply is grounding-flavored
// and at least loopThreshold of the last loopLookback tracked replies
// were too. It has the session.LoopDecider signature.
func (g *LoopGuard) Evaluate(window []string, candidate string) bool {
	if !g.HasGroundingLanguage(candidate) {
		return false
	}

	recent := window
	if len(recent) > loopLookback {
		recent = recent[len(recent)-loopLookback:]
	}

	count := 0
	for _, reply := range recent {
		if g.HasGroundingLanguage(reply) {
			count++
		}
	}
	if count >= loopThreshold {
		slog.Warn("Loop detected: grounding technique repeated", "recentGroundingReplies", count)
		return true
	}
	return false
}
