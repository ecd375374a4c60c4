// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soulene-ai/soulene/services/soulene/datatypes"
)

// entry is the state owned by one session. Its mutex serializes all
// read-modify-write operations for that session key.
type entry struct {
	mu         sync.Mutex
	turns      []datatypes.Turn
	loopWindow []string
	location   string
	hasLoc     bool
	lastActive time.Time
}

// MemoryStore implements Store with an in-process registry of sessions.
// The registry map is guarded by an RWMutex; each session entry carries
// its own lock so sessions never contend with each other.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]*entry
	maxHistory int
	loopWindow int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory session store with the default
// history and loop-window bounds.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]*entry),
		maxHistory: DefaultMaxHistory,
		loopWindow: DefaultLoopWindow,
	}
}

// get returns the entry for id, creating it lazily on first use.
func (s *MemoryStore) get(id string) *entry {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.sessions[id]; ok {
		return e
	}
	e = &entry{lastActive: now()}
	s.sessions[id] = e
	return e
}

// AppendTurn implements Store.
func (s *MemoryStore) AppendTurn(ctx context.Context, sessionID, role, content string) error {
	e := s.get(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.turns = append(e.turns, datatypes.Turn{
		Role:      role,
		Content:   content,
		Timestamp: now(),
	})
	e.turns = truncateTurns(e.turns, s.maxHistory)
	e.lastActive = now()
	return nil
}

// History implements Store.
func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]datatypes.Turn, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]datatypes.Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

// RecentContext implements Store.
func (s *MemoryStore) RecentContext(ctx context.Context, sessionID string, limit int) (string, error) {
	turns, err := s.History(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return formatContext(turns, limit), nil
}

// DetectAndTrackLoop implements Store. The decider runs and the window
// mutates under the same session lock, so two concurrent requests for
// one session cannot interleave their check and append.
func (s *MemoryStore) DetectAndTrackLoop(ctx context.Context, sessionID, candidate string, isLoop LoopDecider) (bool, error) {
	e := s.get(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if isLoop(e.loopWindow, candidate) {
		return true, nil
	}
	e.loopWindow = append(e.loopWindow, candidate)
	e.loopWindow = truncateWindow(e.loopWindow, s.loopWindow)
	e.lastActive = now()
	return false, nil
}

// Location implements Store.
func (s *MemoryStore) Location(ctx context.Context, sessionID string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.location, e.hasLoc, nil
}

// SetLocation implements Store.
func (s *MemoryStore) SetLocation(ctx context.Context, sessionID, location string) error {
	e := s.get(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.location = location
	e.hasLoc = true
	return nil
}

// Clear implements Store. Idempotent.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Sweep removes sessions idle longer than maxIdle and returns how many
// were evicted. Called by the optional Cleaner.
func (s *MemoryStore) Sweep(maxIdle time.Duration) int {
	cutoff := now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		stale := e.lastActive.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("Swept idle sessions", "evicted", evicted, "maxIdle", maxIdle)
	}
	return evicted
}
