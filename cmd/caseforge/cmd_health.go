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

	"github.com/spf13/cobra"
)

func runHealth(cmd *cobra.Command, args []string) {
	var resp map[string]string
	if err := getJSON("/health", &resp); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Orchestrator unreachable: ")+err.Error())
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(resp)
		return
	}
	fmt.Printf("orchestrator: %s\n", resp["status"])
	fmt.Printf("weaviate:     %s\n", resp["weaviate"])
}
