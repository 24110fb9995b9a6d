// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"regexp"
	"strings"
)

// Disallowed fields stripped from the final document. The filter is a blunt
// line-level substring match, not field-aware: a step whose wording happens
// to contain one of these words is removed too. That is the documented
// contract, not an accident.
var strippedKeywords = []string{"description", "test data", "priority"}

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

// PostProcess removes every line containing a disallowed field keyword,
// collapses runs of blank lines, and trims the document. Applying it twice
// yields the same result as applying it once. Trailing whitespace is
// stripped per line first so whitespace-only lines become plain blanks and
// the collapse is stable across repeated application.
func PostProcess(document string) string {
	lines := strings.Split(document, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		low := strings.ToLower(line)
		drop := false
		for _, kw := range strippedKeywords {
			if strings.Contains(low, kw) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	result := strings.Join(kept, "\n")
	result = extraBlankLines.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
