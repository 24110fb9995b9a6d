// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/caseforge-ai/caseforge/cmd/caseforge/config"
	"github.com/caseforge-ai/caseforge/services/orchestrator/datatypes"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	metaStyle  = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func runGenerate(cmd *cobra.Command, args []string) {
	if criteriaFile != "" {
		raw, err := os.ReadFile(criteriaFile)
		if err != nil {
			log.Fatalf("Could not read criteria file %s: %v", criteriaFile, err)
		}
		criteriaText = string(raw)
	}

	// Interactive fallback: prompt for what the flags didn't supply.
	if (description == "" || criteriaText == "") && stdoutIsTTY() {
		if err := promptForStory(); err != nil {
			log.Fatalf("Input aborted: %v", err)
		}
	}
	if description == "" || criteriaText == "" {
		log.Fatal("Both --description and --criteria (or --criteria-file) are required")
	}

	useKnowledge := config.Global.Generation.UseKnowledge && !noKnowledge
	req := datatypes.GenerateTestCasesRequest{
		Description:        description,
		AcceptanceCriteria: criteriaText,
		UseKnowledge:       &useKnowledge,
		Project:            project,
	}

	fmt.Fprintln(os.Stderr, "Generating test cases, this can take a few minutes...")
	var resp datatypes.GenerateTestCasesResponse
	if err := postJSON("/v1/generate", req, &resp); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Generation failed: ")+err.Error())
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(resp)
	} else {
		renderDocument(resp)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(resp.TestCases), 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", outputPath, err)
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", outputPath)
	}
}

// promptForStory collects the story interactively when flags were omitted.
func promptForStory() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("User story").
				Description("What should the system do, and for whom?").
				Value(&description),
			huh.NewText().
				Title("Acceptance criteria").
				Description("One criterion per line works best.").
				Value(&criteriaText),
		),
	)
	return form.Run()
}

func renderDocument(resp datatypes.GenerateTestCasesResponse) {
	if stdoutIsTTY() {
		fmt.Println(titleStyle.Render("Generated Test Cases"))
		fmt.Println(metaStyle.Render(fmt.Sprintf(
			"criteria: %d  chunks: %d  knowledge: %v  model: %s  took: %.1fs",
			resp.Metadata.CriteriaCount, resp.Metadata.ChunkCount,
			resp.Metadata.KnowledgeUsed, resp.Metadata.Model,
			resp.Metadata.GenerationTimeSeconds)))
		fmt.Println(strings.Repeat("-", 60))
	}
	fmt.Println(resp.TestCases)
	if resp.OutputFile != "" {
		fmt.Fprintln(os.Stderr, metaStyle.Render("Server copy: "+resp.OutputFile))
	}
}
