// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package secrets classifies snippet content against an embedded
// table of sensitive-data patterns: credentials, PII, and internal
// infrastructure references.
//
// The pattern table is baked into the binary at compile time so the
// rules are immutable at runtime and travel with the executable.
package secrets

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed secret_patterns.yaml
var embeddedPatterns []byte

// ClassPublic is the classification of content matching no pattern.
const ClassPublic = "public"

// Engine scans snippets against the compiled classification table.
//
// Description:
//
//	Classify answers the quick question "what data class is this
//	snippet" by returning the first (highest priority) matching
//	class. Scan produces the detailed per-line findings used in
//	scan responses.
//
// Thread Safety:
//
//	Engine is immutable after construction and safe for concurrent
//	use.
type Engine struct {
	classifiers []Classification
}

// NewEngine loads the embedded pattern table, compiles every regex,
// and sorts classifications by priority.
//
// Outputs:
//
//	*Engine - The ready engine.
//	error - Non-nil if the embedded YAML is malformed or a regex is
//	invalid.
func NewEngine() (*Engine, error) {
	var file classificationFile
	if err := yaml.Unmarshal(embeddedPatterns, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded pattern table: %w", err)
	}
	if err := file.compileRegexes(); err != nil {
		return nil, fmt.Errorf("failed to compile a regex: %w", err)
	}
	file.sortByPriority()
	return &Engine{classifiers: file.Classifications}, nil
}

// Classify returns the name of the highest priority classification
// matching the snippet, or ClassPublic when nothing matches.
func (e *Engine) Classify(code []byte) string {
	for _, classifier := range e.classifiers {
		for _, re := range classifier.CompiledPatterns {
			if re.Match(code) {
				return classifier.Name
			}
		}
	}
	return ClassPublic
}

// Scan audits every line of the snippet against every pattern.
//
// Inputs:
//
//	code - The snippet text.
//
// Outputs:
//
//	[]Finding - One entry per match, in line order. Matched content
//	is truncated so raw secrets never round trip in full.
func (e *Engine) Scan(code string) []Finding {
	var findings []Finding
	lines := strings.Split(code, "\n")
	for lineNum, line := range lines {
		for _, classifier := range e.classifiers {
			for _, pattern := range classifier.Patterns {
				match := pattern.compiledPattern.FindString(line)
				if match == "" {
					continue
				}
				findings = append(findings, Finding{
					LineNumber:         lineNum + 1,
					MatchedContent:     truncateMatch(strings.TrimSpace(match)),
					ClassificationName: classifier.Name,
					PatternId:          pattern.Id,
					PatternDescription: pattern.Description,
					Confidence:         pattern.Confidence,
				})
			}
		}
	}
	return findings
}

// PatternCount returns the number of compiled patterns.
func (e *Engine) PatternCount() int {
	n := 0
	for _, c := range e.classifiers {
		n += len(c.Patterns)
	}
	return n
}

// truncateMatch keeps enough of the match to locate it without
// echoing a full credential back to the caller.
func truncateMatch(match string) string {
	const keep = 12
	if len(match) <= keep {
		return match
	}
	return match[:keep] + "..."
}
