// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package emergency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/soulene-ai/soulene/services/llm"
	"github.com/soulene-ai/soulene/services/soulene/datatypes"
	"github.com/soulene-ai/soulene/services/soulene/safety"
)

var emergencyTracer = otel.Tracer("soulene.emergency")

// defaultCacheKey is used when no location was detected.
const defaultCacheKey = "default"

// Resolver looks up emergency contact numbers for a location. Results
// are cached forever per location key, including fallback records
// produced on capability failure: one bad lookup must not turn into a
// capability call on every subsequent emergency message.
type Resolver struct {
	client  llm.LLMClient
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]datatypes.EmergencyContactInfo

	group singleflight.Group
}

// NewResolver creates a contact resolver around a capability client.
func NewResolver(client llm.LLMClient) *Resolver {
	return &Resolver{
		client:  client,
		timeout: safety.CapabilityTimeout(),
		cache:   make(map[string]datatypes.EmergencyContactInfo),
	}
}

// Resolve returns the contact record for a location, from cache when
// possible. Concurrent first lookups for the same location share one
// in-flight capability call. Resolve never fails: the static fallback
// record stands in when the lookup does not produce a usable result.
func (r *Resolver) Resolve(ctx context.Context, location string) datatypes.EmergencyContactInfo {
	ctx, span := emergencyTracer.Start(ctx, "Resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("contacts.location", location))

	key := location
	if key == "" {
		key = defaultCacheKey
	}

	r.mu.Lock()
	if info, ok := r.cache[key]; ok {
		r.mu.Unlock()
		span.SetAttributes(attribute.Bool("contacts.cache_hit", true))
		return info
	}
	r.mu.Unlock()

	v, _, _ := r.group.Do(key, func() (any, error) {
		info := r.lookup(ctx, location)
		r.mu.Lock()
		r.cache[key] = info
		r.mu.Unlock()
		return info, nil
	})
	return v.(datatypes.EmergencyContactInfo)
}

// lookup performs the capability call. Fail-open to the static record.
func (r *Resolver) lookup(ctx context.Context, location string) datatypes.EmergencyContactInfo {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	target := location
	if target == "" {
		target = fallbackContacts[defaultJurisdiction].Location
	}

	prompt := fmt.Sprintf(`
Find the CORRECT emergency numbers for: %s

Find:
1. Police emergency number
2. Ambulance/Medical emergency number
3. Suicide prevention hotline (if available)

Verify these are CURRENT and WORKING numbers.

Output ONLY this JSON format (nothing else):
{
  "location": "country/city name",
  "police": "number",
  "medical": "number",
  "suicide_hotline": "number or 'not available'",
  "verified": true/false,
  "source": "where you found this info"
}
`, target)

	raw, err := r.client.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "contact lookup capability failed")
		slog.Error("Emergency contact lookup failed, using static fallback",
			"location", location, "error", err)
		return FallbackFor(location)
	}

	var info datatypes.EmergencyContactInfo
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &info); err != nil {
		slog.Error("Emergency contact lookup output unparseable, using static fallback",
			"location", location, "error", err)
		return FallbackFor(location)
	}
	if info.Police == "" && info.Medical == "" {
		slog.Warn("Emergency contact lookup returned no numbers, using static fallback",
			"location", location)
		return FallbackFor(location)
	}
	if info.Location == "" {
		info.Location = target
	}
	return info
}

// FormatContacts renders a contact record as the human-readable string
// substituted for the [EMERGENCY_NUMBER] placeholder, e.g.
// "102 or 108 (ambulance) or 100 (police) or AASRA 9820466726 (crisis line)".
func FormatContacts(info datatypes.EmergencyContactInfo) string {
	var parts []string

	if info.Medical != "" {
		parts = append(parts, info.Medical+" (ambulance)")
	}
	if info.Police != "" {
		parts = append(parts, info.Police+" (police)")
	}
	if info.SuicideHotline != "" && info.SuicideHotline != "not available" {
		parts = append(parts, info.SuicideHotline+" (crisis line)")
	}

	if len(parts) == 0 {
		return "112 (international emergency)"
	}
	return strings.Join(parts, " or ")
}
