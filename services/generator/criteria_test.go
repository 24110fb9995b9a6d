// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentCriteria_AssignsStableIndices(t *testing.T) {
	criteria := SegmentCriteria(DefaultSegmenter(), "The user can log in.\nThe user can log out.\nSessions expire after 30 minutes.", nil)

	require.Len(t, criteria, 3)
	for i, c := range criteria {
		assert.Equal(t, i+1, c.Index)
		assert.NotEmpty(t, c.Text)
	}
	assert.Equal(t, "The user can log in.", criteria[0].Text)
	assert.Equal(t, "Sessions expire after 30 minutes.", criteria[2].Text)
}

func TestSegmentCriteria_OverrideBypassesSegmentation(t *testing.T) {
	override := []string{"  first criterion  ", "", "second criterion"}
	criteria := SegmentCriteria(DefaultSegmenter(), "this text must be ignored entirely", override)

	require.Len(t, criteria, 2)
	assert.Equal(t, AtomicCriterion{Index: 1, Text: "first criterion"}, criteria[0])
	assert.Equal(t, AtomicCriterion{Index: 2, Text: "second criterion"}, criteria[1])
}

func TestSentenceSegmenter_SplitsCompoundSentence(t *testing.T) {
	items := SentenceSegmenter{}.Segment("The form validates the email address, and the form rejects empty passwords.")

	require.Len(t, items, 2)
	assert.Equal(t, "The form validates the email address", items[0])
	assert.Equal(t, "the form rejects empty passwords.", items[1])
}

func TestSentenceSegmenter_KeepsSentenceWhenClauseTooShort(t *testing.T) {
	// "it works" after the conjunction is below the minimum clause size.
	items := SentenceSegmenter{}.Segment("The upload completes within ten seconds, and it works.")

	require.Len(t, items, 1)
	assert.Contains(t, items[0], "and it works")
}

func TestSentenceSegmenter_SkipsBareListMarkers(t *testing.T) {
	// Numbered markers on their own lines carry no letters and are dropped.
	items := SentenceSegmenter{}.Segment("1.\nA.\n2.\nB.\n3.\nC.")

	assert.Equal(t, []string{"A.", "B.", "C."}, items)
}

func TestSentenceSegmenter_NewlinesAreBoundaries(t *testing.T) {
	items := SentenceSegmenter{}.Segment("user sees the dashboard\nuser can filter by date")

	assert.Equal(t, []string{"user sees the dashboard", "user can filter by date"}, items)
}

func TestRegexSegmenter_NumberedList(t *testing.T) {
	items := RegexSegmenter{}.Segment("1. first requirement 2. second requirement 3. third requirement")

	require.Len(t, items, 3)
	assert.Equal(t, "first requirement", items[0])
	assert.Equal(t, "third requirement", items[2])
}

func TestRegexSegmenter_BulletedList(t *testing.T) {
	items := RegexSegmenter{}.Segment("- validate the token\n- refresh the token\n- revoke the token")

	require.Len(t, items, 3)
	assert.Equal(t, "validate the token", items[0])
}

func TestRegexSegmenter_ConjunctionDecomposition(t *testing.T) {
	items := RegexSegmenter{}.Segment("the page loads and the header renders; the footer renders")

	assert.Equal(t, []string{"the page loads", "the header renders", "the footer renders"}, items)
}

func TestFallbackSegmenter_SecondStrategyWinsOnSingleUnit(t *testing.T) {
	// No sentence boundaries (the periods are not followed by whitespace), so
	// the sentence strategy yields a single unit and the regex numbered-list
	// split takes over.
	items := DefaultSegmenter().Segment("1.login works 2.logout works")

	require.Len(t, items, 2)
	assert.Equal(t, "login works", items[0])
	assert.Equal(t, "logout works", items[1])
}

func TestFallbackSegmenter_SingleRequirementStillYieldsOne(t *testing.T) {
	items := DefaultSegmenter().Segment("The system persists the audit record")

	require.Len(t, items, 1)
}

func TestSegmentCriteria_EmptyInput(t *testing.T) {
	assert.Empty(t, SegmentCriteria(DefaultSegmenter(), "", nil))
	assert.Empty(t, SegmentCriteria(DefaultSegmenter(), "   \n\n  ", nil))
}
