// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session holds per-conversation state: bounded history, the
// loop-pattern window, and the detected user location.
//
// Sessions are created lazily on first use and removed only by Clear
// (or by the optional idle sweeper, see cleaner.go). All read-modify-write
// operations on one session are serialized; different sessions never
// block each other beyond the brief registry lookup.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/soulene-ai/soulene/services/soulene/datatypes"
)

const (
	// DefaultMaxHistory bounds a session's turn history. Oldest turns
	// are evicted first, never the newest.
	DefaultMaxHistory = 50

	// DefaultLoopWindow bounds the tracked assistant replies used for
	// loop detection.
	DefaultLoopWindow = 5
)

// LoopDecider inspects the tracked reply window and a candidate reply
// and reports whether the candidate continues a repetitive pattern.
// It must be a pure function: the store calls it under the session lock.
type LoopDecider func(window []string, candidate string) bool

// Store defines the interface for session state storage.
type Store interface {
	// AppendTurn appends a turn with the current timestamp, then
	// truncates the history to the newest DefaultMaxHistory turns.
	AppendTurn(ctx context.Context, sessionID, role, content string) error

	// History returns a copy of the session's turns, oldest first.
	// An unknown session yields an empty history, not an error.
	History(ctx context.Context, sessionID string) ([]datatypes.Turn, error)

	// RecentContext formats the newest limit turns as labeled lines,
	// oldest first within the window. Read-only.
	RecentContext(ctx context.Context, sessionID string, limit int) (string, error)

	// DetectAndTrackLoop runs the decider over the session's reply
	// window. When no loop is declared the candidate is appended to
	// the window (capped, oldest evicted); a declared loop leaves the
	// window untouched. Check and append are atomic per session.
	DetectAndTrackLoop(ctx context.Context, sessionID, candidate string, isLoop LoopDecider) (bool, error)

	// Location returns the session's resolved location, if any.
	Location(ctx context.Context, sessionID string) (string, bool, error)

	// SetLocation records the resolved location. Set once, read
	// thereafter; callers do not re-resolve within a session.
	SetLocation(ctx context.Context, sessionID, location string) error

	// Clear removes all state for the session. Clearing an unknown
	// session is a no-op, not an error.
	Clear(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store.
	Close() error
}

// formatContext renders the newest limit turns as the classifier and
// refiner context string: one "User: ..." / "Soulene: ..." line per turn,
// oldest first within the window.
func formatContext(turns []datatypes.Turn, limit int) string {
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	var b strings.Builder
	for _, turn := range turns {
		label := "Soulene"
		if turn.Role == datatypes.RoleUser {
			label = "User"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// truncateTurns keeps the newest max turns.
func truncateTurns(turns []datatypes.Turn, max int) []datatypes.Turn {
	if max > 0 && len(turns) > max {
		return turns[len(turns)-max:]
	}
	return turns
}

// truncateWindow keeps the newest max tracked replies.
func truncateWindow(window []string, max int) []string {
	if max > 0 && len(window) > max {
		return window[len(window)-max:]
	}
	return window
}

// now is a seam for tests.
var now = time.Now
