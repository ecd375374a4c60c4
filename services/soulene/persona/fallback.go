// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package persona

import "strings"

// Explicit active-intent phrases that force the urgent fallback line.
var dangerIndicators = []string{
	"going to kill myself", "kill myself", "i will kill", "i will end", "i am going to jump",
	"i am going to hurt myself", "have pills ready", "ready to end it",
}

// Exhaustion and passive-ideation cues for the reflective fallback tier.
var exhaustionIndicators = []string{
	"exhaust", "tired", "can't do this", "done", "wouldn't mind", "wish i was gone",
}

// fragmentLimit caps how much of the user's first line gets mirrored.
const fragmentLimit = 120

// FallbackReply is the deterministic stand-in used when the persona
// model is unavailable. It follows the same tone rules as the model:
// short, mirrors the pain, and uses the placeholder for explicit danger
// so contact substitution still happens.
func FallbackReply(message string) string {
	text := strings.TrimSpace(message)
	lower := strings.ToLower(text)

	for _, s := range dangerIndicators {
		if strings.Contains(lower, s) {
			return "Urgent - call " + EmergencyNumberPlaceholder + " now. Are you still there?"
		}
	}

	for _, s := range exhaustionIndicators {
		if strings.Contains(lower, s) {
			fragment := firstLineFragment(text)
			if len(fragment) < 5 {
				fragment = "You're overwhelmed"
			}
			return fragment + "... That sounds brutal. You're reaching out - that matters."
		}
	}

	fragment := firstLineFragment(text)
	if fragment == "" {
		fragment = "That sounds hard"
	}
	return fragment + "... I'm here with you. Tell me a bit more?"
}

// firstLineFragment returns the first line of the text, capped at
// fragmentLimit runes and trimmed of trailing space.
func firstLineFragment(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	runes := []rune(line)
	if len(runes) > fragmentLimit {
		runes = runes[:fragmentLimit]
	}
	return strings.TrimRight(string(runes), " \t")
}
