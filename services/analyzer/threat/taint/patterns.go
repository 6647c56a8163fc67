// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package taint tracks untrusted data from input sources to dangerous
// sinks inside a single snippet. Tracking is textual: assignments of
// known source expressions introduce taint, assignment chains
// propagate it, and sink calls that consume a tainted variable become
// flows. The tracker is an optional analysis layer and reduces risk
// sensitivity rather than adding false positives: a flow is only
// surfaced above a confidence threshold.
package taint

import "regexp"

// SourcePattern describes an expression that introduces untrusted
// data. Risk and Confidence are per-category calibrations; Risk feeds
// the flow risk average, Confidence caps the flow confidence.
type SourcePattern struct {
	Type        string
	Pattern     *regexp.Regexp
	Risk        float64
	Confidence  float64
	Description string
}

// SinkPattern describes a call that must never consume untrusted data.
type SinkPattern struct {
	Type        string
	Pattern     *regexp.Regexp
	Risk        float64
	Confidence  float64
	Description string
}

// defaultSources covers user input, environment, file, network, and
// argument vectors. Ordered roughly by attacker reachability.
var defaultSources = []SourcePattern{
	{
		Type:        "user_input",
		Pattern:     regexp.MustCompile(`(?:^|[^\w.])(?:input|raw_input)\s*\(`),
		Risk:        8.0,
		Confidence:  0.9,
		Description: "Interactive user input",
	},
	{
		Type:        "http_request",
		Pattern:     regexp.MustCompile(`request\.(?:args|form|json|data|values|cookies|headers|GET|POST)\b|r\.FormValue\s*\(|r\.URL\.Query\s*\(`),
		Risk:        8.5,
		Confidence:  0.9,
		Description: "HTTP request data",
	},
	{
		Type:        "environment",
		Pattern:     regexp.MustCompile(`os\.environ\b|os\.getenv\s*\(|os\.Getenv\s*\(`),
		Risk:        4.0,
		Confidence:  0.8,
		Description: "Environment variable",
	},
	{
		Type:        "file_read",
		Pattern:     regexp.MustCompile(`\.read(?:line|lines)?\s*\(\s*\)|os\.ReadFile\s*\(|ioutil\.ReadFile\s*\(`),
		Risk:        5.0,
		Confidence:  0.75,
		Description: "File contents",
	},
	{
		Type:        "network",
		Pattern:     regexp.MustCompile(`\.recv\s*\(|socket\.recv|urlopen\s*\(|requests\.(?:get|post)\s*\(|http\.Get\s*\(`),
		Risk:        7.5,
		Confidence:  0.85,
		Description: "Network payload",
	},
	{
		Type:        "cli_args",
		Pattern:     regexp.MustCompile(`sys\.argv\b|os\.Args\b`),
		Risk:        5.5,
		Confidence:  0.85,
		Description: "Command-line argument",
	},
	{
		Type:        "deserialized",
		Pattern:     regexp.MustCompile(`json\.loads\s*\(|yaml\.safe_load\s*\(`),
		Risk:        3.5,
		Confidence:  0.7,
		Description: "Parsed structured data",
	},
}

// defaultSinks covers code execution, command execution,
// deserialization, SQL, and path operations.
var defaultSinks = []SinkPattern{
	{
		Type:        "code_execution",
		Pattern:     regexp.MustCompile(`(?:^|[^\w.])(?:eval|exec|compile)\s*\(`),
		Risk:        9.5,
		Confidence:  0.95,
		Description: "Dynamic code evaluation",
	},
	{
		Type:        "command_execution",
		Pattern:     regexp.MustCompile(`os\.system\s*\(|os\.popen\s*\(|subprocess\.(?:call|run|Popen|check_output)\s*\(|exec\.Command\s*\(`),
		Risk:        9.0,
		Confidence:  0.9,
		Description: "Shell or process execution",
	},
	{
		Type:        "deserialization",
		Pattern:     regexp.MustCompile(`pickle\.loads?\s*\(|marshal\.loads?\s*\(|yaml\.load\s*\(`),
		Risk:        8.5,
		Confidence:  0.9,
		Description: "Unsafe object deserialization",
	},
	{
		Type:        "sql_query",
		Pattern:     regexp.MustCompile(`(?:execute|executemany|Query|Exec)\s*\(`),
		Risk:        7.5,
		Confidence:  0.75,
		Description: "SQL statement execution",
	},
	{
		Type:        "file_path",
		Pattern:     regexp.MustCompile(`(?:^|[^\w.])open\s*\(|os\.Open\s*\(|os\.Remove\s*\(`),
		Risk:        6.0,
		Confidence:  0.7,
		Description: "Filesystem access",
	},
}

// severityMultipliers boosts flow risk for the most exploitable
// source/sink pairings. Unlisted pairs use 1.0.
var severityMultipliers = map[[2]string]float64{
	{"user_input", "code_execution"}:      1.5,
	{"user_input", "command_execution"}:   1.5,
	{"http_request", "code_execution"}:    1.5,
	{"http_request", "command_execution"}: 1.5,
	{"http_request", "sql_query"}:         1.4,
	{"network", "code_execution"}:         1.4,
	{"network", "deserialization"}:        1.4,
	{"user_input", "sql_query"}:           1.3,
	{"user_input", "file_path"}:           1.2,
	{"environment", "command_execution"}:  1.1,
	{"deserialized", "command_execution"}: 1.2,
	{"cli_args", "command_execution"}:     1.2,
}

func multiplierFor(sourceType, sinkType string) float64 {
	if m, ok := severityMultipliers[[2]string{sourceType, sinkType}]; ok {
		return m
	}
	return 1.0
}
