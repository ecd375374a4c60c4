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
	"time"
)

// Sweeper is implemented by stores that can evict idle sessions.
// The Redis store does not implement it; Redis key TTLs cover the
// same concern server-side.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Cleaner periodically evicts sessions that have been idle longer than
// maxIdle. It is opt-in: without it, sessions live for the process
// lifetime, which is the historical behavior of this service.
type Cleaner struct {
	store    Sweeper
	maxIdle  time.Duration
	interval time.Duration
}

// NewCleaner creates a session cleaner. The sweep interval defaults to
// a quarter of maxIdle, clamped to at least one minute.
func NewCleaner(store Sweeper, maxIdle time.Duration) *Cleaner {
	interval := maxIdle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Cleaner{store: store, maxIdle: maxIdle, interval: interval}
}

// Run sweeps until the context is canceled. Call it in its own goroutine.
func (c *Cleaner) Run(ctx context.Context) {
	slog.Info("Session cleaner started", "maxIdle", c.maxIdle, "interval", c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Session cleaner stopped")
			return
		case <-ticker.C:
			c.store.Sweep(c.maxIdle)
		}
	}
}
