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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/scan"
)

var (
	scanLanguage string
	scanLevel    string
	scanServer   string
	scanJSON     bool

	scanCmd = &cobra.Command{
		Use:   "scan [file]",
		Short: "Analyze a code snippet for security threats",
		Long: `Reads a snippet from a file (or stdin when the argument is "-"),
runs the layered analysis pipeline, and prints the verdict.

Without --server the scan runs in-process. With --server the snippet
is sent to a running Guardian instance, which also records it in the
audit trail.`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCommand,
	}
)

func init() {
	scanCmd.Flags().StringVar(&scanLanguage, "language", "", "Snippet language (default: inferred from extension, else python)")
	scanCmd.Flags().StringVar(&scanLevel, "level", "moderate", "Security level: strict, moderate, or relaxed")
	scanCmd.Flags().StringVar(&scanServer, "server", "", "Guardian server URL (default: scan in-process)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the full verdict as JSON")
	rootCmd.AddCommand(scanCmd)
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	code, language, err := readSnippet(args[0])
	if err != nil {
		return err
	}
	if scanLanguage != "" {
		language = scanLanguage
	}

	var result *threat.ThreatAnalysis
	if scanServer != "" {
		result, err = scanRemote(code, language)
	} else {
		result, err = scanLocal(cmd.Context(), code, language)
	}
	if err != nil {
		return err
	}

	if scanJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	printVerdict(result)
	if result.RiskLevel == threat.RiskHigh || result.RiskLevel == threat.RiskCritical {
		os.Exit(2)
	}
	return nil
}

// readSnippet loads the snippet and infers the language from the file
// extension. "-" reads stdin.
func readSnippet(arg string) (code, language string, err error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "python", nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", "", fmt.Errorf("read snippet: %w", err)
	}

	language = "python"
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".go":
		language = "go"
	case ".py":
		language = "python"
	}
	return string(data), language, nil
}

func scanLocal(ctx context.Context, code, language string) (*threat.ThreatAnalysis, error) {
	pipeline := scan.NewPipeline()
	return pipeline.Analyze(ctx, code, language, threat.SecurityLevel(scanLevel))
}

func scanRemote(code, language string) (*threat.ThreatAnalysis, error) {
	reqBody, err := json.Marshal(analyzer.AnalyzeRequest{
		Code:          code,
		Language:      language,
		SecurityLevel: scanLevel,
	})
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	url := strings.TrimRight(scanServer, "/") + "/v1/guardian/analyze"
	resp, err := client.Post(url, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("contact guardian server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp analyzer.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("server rejected scan: %s (%s)", errResp.Error, errResp.Code)
		}
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var analyzeResp analyzer.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&analyzeResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &threat.ThreatAnalysis{
		RiskScore:        analyzeResp.RiskScore,
		RiskLevel:        analyzeResp.RiskLevel,
		Findings:         analyzeResp.Findings,
		Confidence:       analyzeResp.Confidence,
		ProcessingTimeMs: analyzeResp.ProcessingTimeMs,
		Cached:           analyzeResp.Cached,
		ASTAnalysis:      analyzeResp.ASTAnalysis,
		DataFlowAnalysis: analyzeResp.DataFlowAnalysis,
	}, nil
}

func printVerdict(result *threat.ThreatAnalysis) {
	fmt.Printf("Risk: %s (score %.2f, confidence %.2f)\n",
		result.RiskLevel, result.RiskScore, result.Confidence)
	if result.Cached {
		fmt.Println("Served from cache.")
	}
	if len(result.Findings) == 0 {
		fmt.Println("No findings.")
		return
	}

	fmt.Printf("Findings (%d):\n", len(result.Findings))
	for _, f := range result.Findings {
		location := ""
		if f.Line > 0 {
			location = fmt.Sprintf(" line %d,", f.Line)
		}
		fmt.Printf("  [%s]%s %s: %s (risk %.2f, context %s)\n",
			f.Layer, location, f.Type, f.Description, f.ContextualRisk, f.Context)
	}

	if result.DataFlowAnalysis != nil && result.DataFlowAnalysis.FlowsDetected > 0 {
		fmt.Printf("Untrusted data flows: %d (%d high risk)\n",
			result.DataFlowAnalysis.FlowsDetected, result.DataFlowAnalysis.HighRiskFlows)
	}
}
