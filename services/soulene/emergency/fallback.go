// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package emergency

import (
	"embed"
	"log/slog"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soulene-ai/soulene/services/soulene/datatypes"
)

//go:embed fallback/*.yaml
var fallbackFS embed.FS

// defaultJurisdiction is used when the detected location has no static
// record of its own.
const defaultJurisdiction = "india"

// fallbackRecord is the on-disk shape of a static contact entry.
type fallbackRecord struct {
	Location       string `yaml:"location"`
	Police         string `yaml:"police"`
	Medical        string `yaml:"medical"`
	SuicideHotline string `yaml:"suicide_hotline"`
}

// fallbackContacts maps lowercased jurisdiction names to their static
// records, loaded once at package init.
var fallbackContacts = loadFallbackContacts()

func loadFallbackContacts() map[string]datatypes.EmergencyContactInfo {
	contacts := make(map[string]datatypes.EmergencyContactInfo)

	entries, err := fallbackFS.ReadDir("fallback")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic("emergency: embedded fallback directory unreadable: " + err.Error())
	}
	for _, entry := range entries {
		data, err := fallbackFS.ReadFile(path.Join("fallback", entry.Name()))
		if err != nil {
			panic("emergency: embedded fallback file unreadable: " + err.Error())
		}
		var rec fallbackRecord
		if err := yaml.Unmarshal(data, &rec); err != nil {
			panic("emergency: malformed fallback file " + entry.Name() + ": " + err.Error())
		}
		contacts[strings.ToLower(rec.Location)] = datatypes.EmergencyContactInfo{
			Location:       rec.Location,
			Police:         rec.Police,
			Medical:        rec.Medical,
			SuicideHotline: rec.SuicideHotline,
			Verified:       false,
			Source:         "default",
		}
	}
	if _, ok := contacts[defaultJurisdiction]; !ok {
		panic("emergency: embedded fallback set is missing the default jurisdiction")
	}
	return contacts
}

// FallbackFor returns the static record for a location, or the default
// jurisdiction's record relabeled with the requested location when no
// jurisdiction matches.
func FallbackFor(location string) datatypes.EmergencyContactInfo {
	if location != "" {
		if info, ok := fallbackContacts[strings.ToLower(location)]; ok {
			return info
		}
	}

	info := fallbackContacts[defaultJurisdiction]
	if location != "" {
		slog.Warn("No static contact record for location, using default jurisdiction numbers",
			"location", location)
		info.Location = location
	}
	return info
}
