// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package emergency resolves jurisdiction-specific emergency contact
// numbers. Location detection is a cheap lexical heuristic over the
// user's own messages; contact lookup is an LLM capability with a
// static fallback table, cached for the process lifetime.
package emergency

import (
	"strings"

	"github.com/soulene-ai/soulene/services/soulene/datatypes"
)

// locationCues are the phrases that suggest a user message mentions
// where they are.
var locationCues = []string{"i live in", "i am in", "from"}

// DetectLocation scans user turns oldest-first for a location mention
// and returns the token following a standalone "in" or "from", trimmed
// of trailing punctuation. The first qualifying token wins. This is a
// deliberately crude heuristic: a wrong guess only changes which
// emergency numbers get substituted, and the default record still
// applies when nothing matches.
func DetectLocation(history []datatypes.Turn) (string, bool) {
	for _, turn := range history {
		if turn.Role != datatypes.RoleUser {
			continue
		}
		lower := strings.ToLower(turn.Content)
		cued := false
		for _, cue := range locationCues {
			if strings.Contains(lower, cue) {
				cued = true
				break
			}
		}
		if !cued {
			continue
		}

		words := strings.Fields(turn.Content)
		for i, word := range words {
			w := strings.ToLower(word)
			if (w == "in" || w == "from") && i+1 < len(words) {
				loc := strings.Trim(words[i+1], ".,!?")
				if loc != "" {
					return loc, true
				}
			}
		}
	}
	return "", false
}
