// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
)

const (
	// redisKeyPrefix namespaces session keys in a shared Redis.
	redisKeyPrefix = "soulene:session:"

	// defaultRedisTTL expires abandoned sessions server-side. Refreshed
	// on every write, so an active conversation never expires mid-flight.
	defaultRedisTTL = 24 * time.Hour

	// rmwRetries bounds optimistic-locking retries under WATCH.
	rmwRetries = 5
)

// redisState is the serialized form of one session.
type redisState struct {
	Turns      []datatypes.Turn `json:"turns"`
	LoopWindow []string         `json:"loop_window"`
	Location   string           `json:"location"`
	HasLoc     bool             `json:"has_location"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// RedisStore implements Store on Redis, for deployments where the chat
// service is replicated and session state must survive a restart.
// Read-modify-write operations use WATCH/MULTI/EXEC so two replicas
// serving the same session key serialize correctly.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}

// load reads and decodes a session. A missing key yields a zero state.
func (s *RedisStore) load(ctx context.Context, id string) (*redisState, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return &redisState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", id, err)
	}
	var state redisState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %q: %w", id, err)
	}
	return &state, nil
}

// mutate applies fn to the session state under optimistic locking.
func (s *RedisStore) mutate(ctx context.Context, id string, fn func(*redisState)) error {
	key := s.key(id)
	txn := func(tx *redis.Tx) error {
		state := &redisState{}
		val, err := tx.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if uerr := json.Unmarshal([]byte(val), state); uerr != nil {
				// Corrupt state: start fresh rather than wedge the session.
				slog.Error("Discarding undecodable session state", "sessionId", id, "error", uerr)
				state = &redisState{}
			}
		}

		fn(state)
		state.UpdatedAt = now()

		encoded, err := json.Marshal(state)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < rmwRetries; i++ {
		err = s.client.Watch(ctx, txn, key)
		if err != redis.TxFailedErr {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update session %q: %w", id, err)
	}
	return nil
}

// AppendTurn implements Store.
func (s *RedisStore) AppendTurn(ctx context.Context, sessionID, role, content string) error {
	return s.mutate(ctx, sessionID, func(state *redisState) {
		state.Turns = append(state.Turns, datatypes.Turn{
			Role:      role,
			Content:   content,
			Timestamp: now(),
		})
		state.Turns = truncateTurns(state.Turns, DefaultMaxHistory)
	})
}

// History implements Store.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]datatypes.Turn, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state.Turns, nil
}

// RecentContext implements Store.
func (s *RedisStore) RecentContext(ctx context.Context, sessionID string, limit int) (string, error) {
	turns, err := s.History(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return formatContext(turns, limit), nil
}

// DetectAndTrackLoop implements Store.
func (s *RedisStore) DetectAndTrackLoop(ctx context.Context, sessionID, candidate string, isLoop LoopDecider) (bool, error) {
	loop := false
	err := s.mutate(ctx, sessionID, func(state *redisState) {
		if isLoop(state.LoopWindow, candidate) {
			loop = true
			return
		}
		state.LoopWindow = append(state.LoopWindow, candidate)
		state.LoopWindow = truncateWindow(state.LoopWindow, DefaultLoopWindow)
	})
	if err != nil {
		return false, err
	}
	return loop, nil
}

// Location implements Store.
func (s *RedisStore) Location(ctx context.Context, sessionID string) (string, bool, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	return state.Location, state.HasLoc, nil
}

// SetLocation implements Store.
func (s *RedisStore) SetLocation(ctx context.Context, sessionID, location string) error {
	return s.mutate(ctx, sessionID, func(state *redisState) {
		state.Location = location
		state.HasLoc = true
	})
}

// Clear implements Store. Deleting a missing key is a no-op in Redis,
// which gives us idempotency for free.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session %q: %w", sessionID, err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
