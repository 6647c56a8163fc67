// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/signature"
)

var (
	patternsServer string
	patternsJSON   bool

	patternsCmd = &cobra.Command{
		Use:   "patterns",
		Short: "List the active threat signature table",
		Long: `Prints the signature table the analyzer matches against. Without
--server the embedded table is listed; with --server the table is
fetched from a running Guardian instance.`,
		RunE: runPatternsCommand,
	}
)

func init() {
	patternsCmd.Flags().StringVar(&patternsServer, "server", "", "Guardian server URL (default: list the embedded table)")
	patternsCmd.Flags().BoolVar(&patternsJSON, "json", false, "Print the table as JSON")
	rootCmd.AddCommand(patternsCmd)
}

func runPatternsCommand(cmd *cobra.Command, args []string) error {
	resp, err := loadPatterns()
	if err != nil {
		return err
	}

	if patternsJSON {
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Signature table %s (%d signatures)\n\n", resp.TableVersion, resp.Count)

	byCategory := make(map[string][]analyzer.PatternInfo)
	for _, p := range resp.Patterns {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Printf("%s:\n", category)
		for _, p := range byCategory[category] {
			fmt.Printf("  %-8s %-24s severity %.1f  %s\n", p.ID, p.Name, p.Severity, p.Description)
		}
		fmt.Println()
	}
	return nil
}

func loadPatterns() (analyzer.PatternsResponse, error) {
	if patternsServer == "" {
		registry := signature.DefaultRegistry()
		resp := analyzer.PatternsResponse{
			TableVersion: signature.TableVersion,
		}
		for _, sig := range registry.All() {
			resp.Patterns = append(resp.Patterns, analyzer.PatternInfo{
				ID:          sig.ID,
				Name:        sig.Name,
				Category:    sig.Category,
				Severity:    sig.Severity,
				Description: sig.Description,
			})
		}
		resp.Count = len(resp.Patterns)
		return resp, nil
	}

	client := &http.Client{Timeout: 10 * time.Second}
	url := strings.TrimRight(patternsServer, "/") + "/v1/guardian/patterns"
	httpResp, err := client.Get(url)
	if err != nil {
		return analyzer.PatternsResponse{}, fmt.Errorf("contact guardian server: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return analyzer.PatternsResponse{}, fmt.Errorf("server returned status %d", httpResp.StatusCode)
	}

	var resp analyzer.PatternsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return analyzer.PatternsResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
