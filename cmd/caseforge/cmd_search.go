// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caseforge-ai/caseforge/services/orchestrator/datatypes"
)

func runSearch(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")
	req := datatypes.SearchRequest{Query: query, K: searchK}

	var resp datatypes.SearchResponse
	if err := postJSON("/v1/search", req, &resp); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Search failed: ")+err.Error())
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(resp)
		return
	}
	if len(resp.Results) == 0 {
		fmt.Println("No matching chunks found.")
		return
	}
	for i, r := range resp.Results {
		fmt.Println(titleStyle.Render(fmt.Sprintf("%d. %s (score %.3f)", i+1, r.Source, r.Score)))
		fmt.Println(r.Content)
		if i < len(resp.Results)-1 {
			fmt.Println(strings.Repeat("-", 60))
		}
	}
}
