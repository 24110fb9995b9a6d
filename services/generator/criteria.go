// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package generator implements the retrieval-augmented test case generation
// pipeline: acceptance criteria are segmented into atomic requirements,
// batched into bounded-size chunks, sent to an LLM per chunk, and the raw
// model output is reconciled into a normalized positive/negative document.
package generator

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
)

// AtomicCriterion is a single indivisible, independently testable requirement
// extracted from the acceptance criteria text. Index is 1-based, assigned at
// segmentation time, and stable through the whole pipeline.
type AtomicCriterion struct {
	Index int
	Text  string
}

// Segmenter splits raw acceptance criteria text into an ordered list of
// non-empty atomic requirement strings.
//
// The two concrete strategies (sentence/clause and regex list splitting) are
// separate implementations so the regex path stays reachable and testable on
// its own rather than only behind a failure of the primary path.
type Segmenter interface {
	Segment(text string) []string
}

// SegmentCriteria runs the given segmenter and assigns stable 1-based indices
// in textual order. A non-empty override list bypasses segmentation entirely
// and is indexed as provided.
func SegmentCriteria(seg Segmenter, text string, override []string) []AtomicCriterion {
	items := override
	if len(items) == 0 {
		items = seg.Segment(text)
	}
	criteria := make([]AtomicCriterion, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		criteria = append(criteria, AtomicCriterion{Index: len(criteria) + 1, Text: item})
	}
	return criteria
}

// -----------------------------------------------------------------------------
// Sentence strategy (primary)
// -----------------------------------------------------------------------------

// SentenceSegmenter splits text into sentence units and attempts to break
// compound sentences joined by a coordinating conjunction into clauses.
// Clause splitting is conservative: if either side of a conjunction is too
// short to stand as a requirement, the whole sentence is kept as one unit.
type SentenceSegmenter struct{}

var clauseBoundary = regexp.MustCompile(`,\s+(?:and|but|or|nor|so|yet)\s+`)

// minClauseWords is the smallest clause accepted as an independent
// requirement when splitting a compound sentence.
const minClauseWords = 3

func (SentenceSegmenter) Segment(text string) []string {
	var items []string
	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || !containsLetter(sentence) {
			// Bare list markers ("1.", "-") are not requirements.
			continue
		}
		clauses := splitClauses(sentence)
		items = append(items, clauses...)
	}
	return items
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// splitSentences breaks text after terminal punctuation followed by
// whitespace. Newlines are sentence boundaries too, so bulleted input
// without punctuation still yields one unit per line.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			sentences = append(sentences, b.String())
			b.Reset()
			continue
		}
		b.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && (i+1 >= len(runes) || unicode.IsSpace(runes[i+1])) {
			sentences = append(sentences, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		sentences = append(sentences, b.String())
	}
	return sentences
}

// splitClauses returns the clause units of a compound sentence, or the whole
// sentence when no safe split exists.
func splitClauses(sentence string) []string {
	parts := clauseBoundary.Split(sentence, -1)
	if len(parts) < 2 {
		return []string{sentence}
	}
	clauses := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(strings.Fields(part)) < minClauseWords {
			// One side is a fragment, not a standalone requirement.
			return []string{sentence}
		}
		clauses = append(clauses, part)
	}
	if len(clauses) == 0 {
		return []string{sentence}
	}
	return clauses
}

// -----------------------------------------------------------------------------
// Regex strategy (fallback)
// -----------------------------------------------------------------------------

// RegexSegmenter is the always-available fallback: numbered list split, then
// bulleted list split, then newline split with and/or/;/. decomposition
// inside each line.
type RegexSegmenter struct{}

var (
	numberedMarker = regexp.MustCompile(`\d+\.`)
	bulletMarker   = regexp.MustCompile(`[*\-•]`)
	atomicBoundary = regexp.MustCompile(`\band\b|\bor\b|;|\.`)
)

func (RegexSegmenter) Segment(text string) []string {
	if parts := collectParts(numberedMarker.Split(text, -1)); len(parts) > 1 {
		return parts
	}
	if parts := collectParts(bulletMarker.Split(text, -1)); len(parts) > 1 {
		return parts
	}
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, collectParts(atomicBoundary.Split(line, -1))...)
	}
	return items
}

func collectParts(parts []string) []string {
	var out []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Ordered fallback composite
// -----------------------------------------------------------------------------

// FallbackSegmenter tries each strategy in order and returns the first result
// with more than one item. When no strategy finds multiple items, the first
// non-empty result wins, so a single-requirement input still yields one unit.
type FallbackSegmenter struct {
	Strategies []Segmenter
}

// DefaultSegmenter returns the production chain: sentence/clause first, regex
// list splitting second.
func DefaultSegmenter() FallbackSegmenter {
	return FallbackSegmenter{Strategies: []Segmenter{SentenceSegmenter{}, RegexSegmenter{}}}
}

func (f FallbackSegmenter) Segment(text string) []string {
	var first []string
	for i, strategy := range f.Strategies {
		items := strategy.Segment(text)
		if len(items) > 1 {
			return items
		}
		if len(first) == 0 && len(items) > 0 {
			first = items
		}
		if i == 0 && len(items) <= 1 {
			slog.Debug("Primary segmentation produced a single unit, trying fallback")
		}
	}
	return first
}
