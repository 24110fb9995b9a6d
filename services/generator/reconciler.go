// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// Section identifies which half of the final document a test case belongs to.
type Section int

const (
	SectionPositive Section = iota
	SectionNegative
)

func (s Section) String() string {
	if s == SectionNegative {
		return "negative"
	}
	return "positive"
}

// ParsedTestCase is one test case recovered from the raw model output.
// AcceptanceText is only rendered for positive cases. CriterionIndex comes
// from an explicit "AC n" heading when the model emitted one, otherwise from
// the per-section implicit counter.
type ParsedTestCase struct {
	Section        Section
	CriterionIndex int
	AcceptanceText string
	Title          string
	Steps          []string
	ExpectedResult string
}

// meaningful reports whether the record carries any substantive field.
// Records that fail this test are silently dropped so empty placeholder
// cases never pollute the output.
func (p *ParsedTestCase) meaningful() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.Title) != "" ||
		len(p.Steps) > 0 ||
		strings.TrimSpace(p.ExpectedResult) != "" ||
		strings.TrimSpace(p.AcceptanceText) != ""
}

var (
	positiveMarker = regexp.MustCompile(`^##\s*positive\s*test\s*cases`)
	negativeMarker = regexp.MustCompile(`^##\s*negative\s*test\s*cases`)
	acHeading      = regexp.MustCompile(`(?i)^###\s*AC\s*(\d+)\b`)
	headingLine    = regexp.MustCompile(`^(###|##)\s*`)

	acceptanceLabel = regexp.MustCompile(`^-?\s*acceptance\s*criteria:`)
	titleLabel      = regexp.MustCompile(`^-?\s*(test\s*case|testcase)\s*title:`)
	stepsLabel      = regexp.MustCompile(`^-?\s*steps:`)
	expectedLabel   = regexp.MustCompile(`^-?\s*expected\s*result:`)

	stepItem       = regexp.MustCompile(`^\s*(\d+\.\s*|-\s+)`)
	titleWordLimit = 12
)

// Reconcile parses the concatenated raw model output into discrete records,
// normalizes them, and re-serializes to the canonical document layout:
// all positive cases first, then all negative cases, each section sorted by
// criterion index. criteria is the original segmented sequence, used to
// resolve acceptance text when the model dropped the label.
//
// Reconcile never fails: when no structured record is found, or anything
// goes wrong mid-scan, the raw input is returned unchanged so the caller
// still gets a best-effort result.
func Reconcile(raw string, criteria []AtomicCriterion) (out string) {
	out = raw
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Reconciliation aborted, returning raw output", "panic", r)
			out = raw
		}
	}()

	positives, negatives := scan(raw)
	if len(positives) == 0 && len(negatives) == 0 {
		slog.Warn("No structured test cases recognized, returning raw output")
		return raw
	}

	sortByCriterion(positives)
	sortByCriterion(negatives)

	var b strings.Builder
	renderSection(&b, "Positive", positives, criteria)
	b.WriteString("\n\n")
	renderSection(&b, "Negative", negatives, criteria)
	return b.String()
}

// scan is the single linear pass over the raw text. State is the active
// section, the partially-filled current record, and one implicit criterion
// counter per section.
func scan(raw string) (positives, negatives []*ParsedTestCase) {
	var section Section
	inSection := false
	var current *ParsedTestCase
	implicitIndex := map[Section]int{SectionPositive: 0, SectionNegative: 0}

	flush := func() {
		if current != nil && inSection && current.meaningful() {
			if current.Section == SectionPositive {
				positives = append(positives, current)
			} else {
				negatives = append(negatives, current)
			}
		}
		current = nil
	}

	lines := strings.Split(raw, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		low := strings.ToLower(line)

		if positiveMarker.MatchString(low) {
			flush()
			section, inSection = SectionPositive, true
			continue
		}
		if negativeMarker.MatchString(low) {
			flush()
			section, inSection = SectionNegative, true
			continue
		}
		if m := acHeading.FindStringSubmatch(line); m != nil && inSection {
			flush()
			n := atoiSafe(m[1])
			current = &ParsedTestCase{Section: section, CriterionIndex: n}
			// Explicit heading re-anchors the implicit counter.
			implicitIndex[section] = n
			continue
		}
		if line == "" {
			continue
		}
		if inSection && current == nil {
			implicitIndex[section]++
			current = &ParsedTestCase{Section: section, CriterionIndex: implicitIndex[section]}
			// Fall through: this same line may carry a field.
		}
		if current == nil {
			continue
		}
		switch {
		case acceptanceLabel.MatchString(low):
			current.AcceptanceText = labelValue(line)
		case titleLabel.MatchString(low):
			current.Title = labelValue(line)
		case stepsLabel.MatchString(low):
			i = consumeSteps(lines, i+1, current) - 1
		case expectedLabel.MatchString(low):
			current.ExpectedResult = labelValue(line)
			// Expected Result always ends the record; the next content
			// line starts a fresh one.
			flush()
		}
	}
	flush()
	return positives, negatives
}

// consumeSteps captures numbered or bulleted lines starting at position
// start until another field label, a section marker, or an AC heading.
// It returns the index of the first line it did not consume.
func consumeSteps(lines []string, start int, current *ParsedTestCase) int {
	i := start
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		low := strings.ToLower(line)
		if headingLine.MatchString(line) ||
			expectedLabel.MatchString(low) ||
			acceptanceLabel.MatchString(low) ||
			titleLabel.MatchString(low) {
			break
		}
		if stepItem.MatchString(line) {
			step := strings.TrimSpace(stepItem.ReplaceAllString(line, ""))
			if step != "" {
				current.Steps = append(current.Steps, step)
			}
		}
	}
	return i
}

func labelValue(line string) string {
	if _, value, found := strings.Cut(line, ":"); found {
		return strings.TrimSpace(value)
	}
	return ""
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func sortByCriterion(cases []*ParsedTestCase) {
	sort.SliceStable(cases, func(i, j int) bool {
		return cases[i].CriterionIndex < cases[j].CriterionIndex
	})
}

// normalizeTitle enforces the Verify/Validate prefix without doubling it and
// keeps titles concise.
func normalizeTitle(title string, positive bool) string {
	verb := "Verify"
	if !positive {
		verb = "Validate"
	}
	t := strings.TrimSpace(title)
	if t == "" {
		return verb + " scenario behaves as expected"
	}
	if !strings.HasPrefix(strings.ToLower(t), strings.ToLower(verb)) {
		t = verb + " " + t
	}
	words := strings.Fields(t)
	if len(words) > titleWordLimit {
		t = strings.Join(words[:titleWordLimit], " ") + "…"
	}
	return t
}

func renderSection(b *strings.Builder, name string, cases []*ParsedTestCase, criteria []AtomicCriterion) {
	fmt.Fprintf(b, "## %s Test Cases", name)
	positive := name == "Positive"
	for i, c := range cases {
		b.WriteString("\n")
		if positive {
			fmt.Fprintf(b, "Acceptance Criteria: %s\n", acceptanceText(c, criteria))
		}
		fmt.Fprintf(b, "Test case Title: %s\n", normalizeTitle(c.Title, positive))
		b.WriteString("Steps:\n")
		if len(c.Steps) > 0 {
			for n, step := range c.Steps {
				fmt.Fprintf(b, "  %d. %s\n", n+1, step)
			}
		} else {
			// Keep the field present even when the model gave no steps.
			b.WriteString("  1. \n")
		}
		fmt.Fprintf(b, "Expected Result: %s", c.ExpectedResult)
		if i < len(cases)-1 {
			b.WriteString("\n")
		}
	}
}

// acceptanceText resolves the Acceptance Criteria line for a positive record:
// the parsed text when present, else a lookup by criterion index against the
// original sequence, else blank.
func acceptanceText(c *ParsedTestCase, criteria []AtomicCriterion) string {
	if strings.TrimSpace(c.AcceptanceText) != "" {
		return c.AcceptanceText
	}
	if c.CriterionIndex >= 1 && c.CriterionIndex <= len(criteria) {
		return criteria[c.CriterionIndex-1].Text
	}
	return ""
}
