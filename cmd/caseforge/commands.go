// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	description  string
	criteriaText string
	criteriaFile string
	noKnowledge  bool
	project      string
	outputPath   string
	jsonOutput   bool

	dataSpace  string
	versionTag string
	numWorkers int

	searchK int

	rootCmd = &cobra.Command{
		Use:   "caseforge",
		Short: "A cli for generating structured test cases from user stories",
		Long: `CaseForge turns a user story and its acceptance criteria into a
structured test case document, grounded in your own domain documents
and example test cases via a local knowledge index.`,
	}

	generateCmd = &cobra.Command{
		Use:     "generate",
		Short:   "Generate test cases from a user story and acceptance criteria",
		Aliases: []string{"gen", "g"},
		Run:     runGenerate, // Defined in cmd_generate.go
	}

	ingestCmd = &cobra.Command{
		Use:     "ingest [path...]",
		Short:   "Ingest documents or example test cases into the knowledge base",
		Aliases: []string{"i"},
		Args:    cobra.MinimumNArgs(1),
		Run:     runIngest, // Defined in cmd_ingest.go
	}

	searchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Search the knowledge base for similar chunks",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch, // Defined in cmd_search.go
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check the orchestrator and its dependencies",
		Run:   runHealth, // Defined in cmd_health.go
	}
)

func init() {
	generateCmd.Flags().StringVarP(&description, "description", "d", "", "User story description")
	generateCmd.Flags().StringVarP(&criteriaText, "criteria", "c", "", "Acceptance criteria text")
	generateCmd.Flags().StringVar(&criteriaFile, "criteria-file", "", "Read acceptance criteria from a file")
	generateCmd.Flags().BoolVar(&noKnowledge, "no-knowledge", false, "Skip knowledge base retrieval")
	generateCmd.Flags().StringVar(&project, "project", "", "Scope retrieval to one project's data space")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Also write the document to this path")
	generateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full JSON response")

	ingestCmd.Flags().StringVar(&dataSpace, "data-space", "", "Project scope for the ingested chunks")
	ingestCmd.Flags().StringVar(&versionTag, "version-tag", "domain_doc", "domain_doc or example_cases")
	ingestCmd.Flags().IntVar(&numWorkers, "workers", 4, "Concurrent upload workers")

	searchCmd.Flags().IntVarP(&searchK, "top", "k", 5, "Number of results")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full JSON response")

	healthCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full JSON response")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(healthCmd)
}
