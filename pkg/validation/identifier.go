// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for security-critical values.
//
// Data space and version tag identifiers flow into Weaviate GraphQL filters
// verbatim. Validating them at the API boundary prevents filter injection and
// keeps the index free of unqueryable garbage values.
package validation

import (
	"fmt"
	"regexp"
)

// identifierPattern matches project/data-space style identifiers: must start
// alphanumeric, then letters, digits, dots, underscores, or hyphens.
// Max length: 64 characters.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]{0,63}$`)

// ValidateDataSpace validates a data space name before it is used in a
// GraphQL where filter. Empty is allowed and means the default (unscoped)
// space.
func ValidateDataSpace(dataSpace string) error {
	if dataSpace == "" {
		return nil
	}
	if !identifierPattern.MatchString(dataSpace) {
		return fmt.Errorf("invalid data space %q (must be 1-64 alphanumeric chars, dots, underscores, or hyphens, starting alphanumeric)", dataSpace)
	}
	return nil
}

// ValidateVersionTag validates a version tag with the same rules as data
// spaces. Empty is allowed; the ingestor applies its default.
func ValidateVersionTag(versionTag string) error {
	if versionTag == "" {
		return nil
	}
	if !identifierPattern.MatchString(versionTag) {
		return fmt.Errorf("invalid version tag %q (must be 1-64 alphanumeric chars, dots, underscores, or hyphens, starting alphanumeric)", versionTag)
	}
	return nil
}
