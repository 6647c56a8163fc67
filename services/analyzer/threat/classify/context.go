// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify labels signature matches with their syntactic
// context and whole snippets with their inferred intent. Both
// classifiers are deterministic, total, and allocation-light; they run
// on every scan regardless of security level.
package classify

import (
	"strings"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// safeUsageIdioms are call shapes that indicate a deliberately safe
// alternative to the dangerous pattern that matched nearby. A match on
// one of these lines is classified safe_usage (risk x0.3), not
// suppressed outright, because the idiom is evidence, not proof.
var safeUsageIdioms = []string{
	"ast.literal_eval",
	"json.loads",
	"json.load",
	"yaml.safe_load",
	"os.environ.get",
	"getenv(",
	".strip()",
	"with open(",
	"parameterize",
	"prepared statement",
}

// parameterizedQueryMarkers indicate a SQL call using placeholders
// rather than concatenation.
var parameterizedQueryMarkers = []string{"execute(", "query(", "exec("}

// docKeywords mark documentation or tutorial material.
var docKeywords = []string{"example", "demo", "tutorial", "sample", "docstring", "documentation"}

// testKeywords mark test scaffolding.
var testKeywords = []string{"test_", "_test", "unittest", "pytest", "assert", "mock", "fixture", "testcase"}

// configKeywords mark configuration assignment lines.
var configKeywords = []string{"config", "setting", "option", "default", "env["}

// logKeywords mark logging statements.
var logKeywords = []string{"log.", "logger.", "logging.", "console.log", "print("}

// ContextClassifier labels one signature match with its CodeContext.
//
// Description:
//
//	Classification inspects the enclosing line of the match: comment
//	markers win first, then quote parity (string literal), then the
//	keyword lexicons, then the safe-usage idiom allowlist. When nothing
//	applies the match is executable code. The classifier never fails
//	and has no state.
//
// Thread Safety:
//
//	ContextClassifier is stateless and safe for concurrent use.
type ContextClassifier struct{}

// NewContextClassifier returns a classifier.
func NewContextClassifier() *ContextClassifier {
	return &ContextClassifier{}
}

// Classify labels the match at the given byte offset.
//
// Inputs:
//
//	code - The full snippet.
//	offset - Byte offset of the match start within code.
//
// Outputs:
//
//	threat.CodeContext - Never empty; executable_code when nothing
//	else applies.
func (c *ContextClassifier) Classify(code string, offset int) threat.CodeContext {
	if offset < 0 || offset > len(code) {
		return threat.ContextExecutable
	}

	line, col := enclosingLine(code, offset)
	lower := strings.ToLower(line)
	prefix := line[:col]

	// Comment markers before the match on the same line.
	if isCommented(prefix) {
		return threat.ContextComment
	}

	// Safe idioms beat the string-literal check: parameterized query
	// text legitimately lives inside a string.
	if isSafeUsage(lower) {
		return threat.ContextSafeUsage
	}

	// Odd quote parity before the match start means the match sits
	// inside a string literal.
	if insideString(prefix) {
		return threat.ContextStringLiteral
	}

	// Documentation and test scaffolding announce themselves on the
	// enclosing def or heading, so look a few lines back too.
	hood := strings.ToLower(precedingLines(code, offset, 3)) + lower
	if containsAny(hood, docKeywords) {
		return threat.ContextDocumentation
	}
	if containsAny(hood, testKeywords) {
		return threat.ContextTestCode
	}
	if containsAny(lower, configKeywords) {
		return threat.ContextConfiguration
	}
	if containsAny(lower, logKeywords) {
		return threat.ContextLogging
	}
	if isTemplateLine(lower) {
		return threat.ContextTemplate
	}

	return threat.ContextExecutable
}

// precedingLines returns up to n full lines before the line that
// contains the offset.
func precedingLines(code string, offset, n int) string {
	start := offset
	for start > 0 && code[start-1] != '\n' {
		start--
	}
	end := start
	for i := 0; i < n && start > 0; i++ {
		start--
		for start > 0 && code[start-1] != '\n' {
			start--
		}
	}
	return code[start:end]
}

// enclosingLine returns the line containing the offset and the column
// of the offset within that line.
func enclosingLine(code string, offset int) (string, int) {
	start := offset
	for start > 0 && code[start-1] != '\n' {
		start--
	}
	end := offset
	for end < len(code) && code[end] != '\n' {
		end++
	}
	return code[start:end], offset - start
}

// isCommented reports whether the line prefix opens a comment before
// the match position.
func isCommented(prefix string) bool {
	trimmed := strings.TrimLeft(prefix, " \t")
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "--") {
		return true
	}
	return commentMarkerBeforeMatch(prefix)
}

// commentMarkerBeforeMatch scans the prefix for a mid-line comment
// marker, tracking quote state so markers inside closed string
// literals do not count. A "#" in `tag = "#1"` must not silence the
// rest of the line.
func commentMarkerBeforeMatch(prefix string) bool {
	var inSingle, inDouble bool
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble {
				return true
			}
		case '/':
			if !inSingle && !inDouble && i+1 < len(prefix) &&
				(prefix[i+1] == '/' || prefix[i+1] == '*') {
				return true
			}
		}
	}
	return false
}

// insideString reports whether the prefix leaves an unclosed quote.
// Parity counting is intentionally naive (no escape handling); the
// misclassification cost is one suppressed finding in a pathological
// snippet, which the AST layer recovers.
func insideString(prefix string) bool {
	singles := strings.Count(prefix, "'")
	doubles := strings.Count(prefix, `"`)
	return singles%2 == 1 || doubles%2 == 1
}

// isSafeUsage reports whether the line uses an allowlisted safe idiom.
func isSafeUsage(lower string) bool {
	if containsAny(lower, safeUsageIdioms) {
		return true
	}
	// Parameterized query shape: a query call with a placeholder and a
	// separate argument, not string concatenation.
	for _, marker := range parameterizedQueryMarkers {
		if strings.Contains(lower, marker) &&
			(strings.Contains(lower, "%s") || strings.Contains(lower, "?")) &&
			strings.Contains(lower, ",") && !strings.Contains(lower, "+") {
			return true
		}
	}
	return false
}

// isTemplateLine reports template interpolation markers.
func isTemplateLine(lower string) bool {
	return strings.Contains(lower, "{{") || strings.Contains(lower, "{%")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
