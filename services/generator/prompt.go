// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// generationTemplate instructs the model on the exact field set, casing and
// section ordering the reconciler expects. Criteria are enumerated with their
// global indices so implicit AC numbering in the output stays aligned with
// the original criteria sequence even across chunks.
const generationTemplate = `You are a senior test engineer. Based on the user story and acceptance criteria, produce clear and readable test cases with the EXACT fields and order below:

Fields per test case (no extra fields):
- Acceptance Criteria
- Test case Title
- Steps
- Expected Result

Important formatting and ordering rules:
- Output must be in Markdown.
- First, provide ALL Positive test cases for ALL acceptance criteria.
- Then, after finishing positives, provide ALL Negative test cases for ALL acceptance criteria.
- Group by Acceptance Criterion inside each section and ensure complete coverage.
- Use concise, numbered Steps for clarity.
- Keep Expected Result singular and specific.

User story:
{{.user_story}}

Acceptance Criteria to cover ({{.criteria_count}} items):

{{.criteria_list}}

Context from previous criteria (already covered, do not re-test):
{{.previous_criteria}}

Additional domain knowledge and example references (use for context only, do not copy verbatim):
{{.domain_knowledge}}

{{.similar_examples}}

Now generate the test cases in this structure (follow EXACT casing and labels; no leading dashes on labels):

## Positive Test Cases

Acceptance Criteria: <paste the AC text>
Test case Title: Verify <concise, outcome-focused title>
Steps:
    1. <step>
    2. <step>
Expected Result: <singular expected outcome>

...repeat until all ACs have at least one Positive test case...

## Negative Test Cases (Do not include the Acceptance Criteria line in this section)

Test case Title: Validate <concise, failure-mode-focused title>
Steps:
    1. <step>
    2. <step>
Expected Result: <singular expected outcome>

Do not include any other fields. Keep wording grounded in the given acceptance criteria.`

// PromptAssembler builds the per-chunk model input. It is a pure data
// transformation: no retrieval, no model calls.
type PromptAssembler struct {
	template prompts.PromptTemplate
}

func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{
		template: prompts.NewPromptTemplate(generationTemplate, []string{
			"user_story",
			"criteria_count",
			"criteria_list",
			"previous_criteria",
			"domain_knowledge",
			"similar_examples",
		}),
	}
}

// Assemble renders the prompt for one chunk. Criterion numbering uses the
// stable global indices carried by the chunk, not a per-chunk restart.
func (a *PromptAssembler) Assemble(chunk GenerationChunk, userStory, domainKnowledge, similarExamples string) (string, error) {
	prompt, err := a.template.Format(map[string]any{
		"user_story":        userStory,
		"criteria_count":    len(chunk.Criteria),
		"criteria_list":     enumerateCriteria(chunk.Criteria),
		"previous_criteria": previousCriteriaBlock(chunk.PreviousCriteria),
		"domain_knowledge":  domainKnowledge,
		"similar_examples":  similarExamples,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format generation prompt: %w", err)
	}
	return prompt, nil
}

func enumerateCriteria(criteria []AtomicCriterion) string {
	lines := make([]string, len(criteria))
	for i, c := range criteria {
		lines[i] = fmt.Sprintf("%d. %s", c.Index, c.Text)
	}
	return strings.Join(lines, "\n")
}

func previousCriteriaBlock(previous []AtomicCriterion) string {
	if len(previous) == 0 {
		return "None"
	}
	return enumerateCriteria(previous)
}
