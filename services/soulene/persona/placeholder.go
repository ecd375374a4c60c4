// Copyright (C) 2025 Soulene AI (hello@soulene.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package persona

import "strings"

// EmergencyNumberPlaceholder is the token the persona and fallbacks use
// in place of concrete emergency numbers. The pipeline substitutes the
// resolved local numbers before the refiner runs, so the refiner only
// ever sees real numbers.
const EmergencyNumberPlaceholder = "[EMERGENCY_NUMBER]"

// SubstituteEmergencyNumber replaces every placeholder occurrence with
// the formatted contact string. An empty contact string leaves the reply
// untouched so a later stage can still act on the placeholder.
func SubstituteEmergencyNumber(reply, contacts string) string {
	if contacts == "" {
		return reply
	}
	return strings.ReplaceAll(reply, EmergencyNumberPlaceholder, contacts)
}
