// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command guardianctl is the CLI for Aleutian Guardian.
//
// It scans snippets locally using the embedded analysis pipeline, or
// against a running Guardian server when --server is set.
//
// Usage:
//
//	guardianctl scan suspicious.py
//	cat snippet.py | guardianctl scan -
//	guardianctl scan --level strict --json suspicious.py
//	guardianctl scan --server http://localhost:8098 suspicious.py
//	guardianctl patterns
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "guardianctl",
	Short: "A CLI for the Aleutian Guardian snippet analyzer",
	Long: `Guardianctl analyzes code snippets for security threats using
layered signature, structural, and data flow analysis.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
