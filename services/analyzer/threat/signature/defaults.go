// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package signature

import "github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"

// defaultSignatures is the built-in signature table. Severities and
// multipliers are calibration values carried over from the tuned
// production table; treat them as data, not design.
//
// Pattern notes: Go regexp has no lookbehind, so bare-name call
// patterns use (?:^|[^\w.]) to reject both attribute access
// (ast.literal_eval) and identifier suffixes (my_eval).
var defaultSignatures = []*Signature{
	// --- Code execution ---
	{
		ID:          "GRD-001",
		Name:        "code_injection_eval",
		Category:    "execution",
		Severity:    9.0,
		Description: "Dynamic code evaluation via eval()",
		Pattern:     `(?m)(?:^|[^\w.])eval\s*\(`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextDocumentation,
		},
		IntentMultipliers: map[threat.IntentCategory]float64{
			threat.IntentTesting:       0.5,
			threat.IntentDocumentation: 0.3,
		},
		BaseConfidence: 0.9,
	},
	{
		ID:          "GRD-002",
		Name:        "code_injection_exec",
		Category:    "execution",
		Severity:    9.0,
		Description: "Dynamic statement execution via exec()",
		Pattern:     `(?m)(?:^|[^\w.])exec\s*\(`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextDocumentation,
		},
		IntentMultipliers: map[threat.IntentCategory]float64{
			threat.IntentTesting:       0.5,
			threat.IntentDocumentation: 0.3,
		},
		BaseConfidence: 0.9,
	},
	{
		ID:          "GRD-003",
		Name:        "dynamic_compile",
		Category:    "execution",
		Severity:    6.0,
		Description: "Dynamic compilation of source text",
		Pattern:     `(?m)(?:^|[^\w.])compile\s*\(`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextDocumentation,
		},
		BaseConfidence: 0.7,
	},
	{
		ID:          "GRD-004",
		Name:        "dynamic_import",
		Category:    "execution",
		Severity:    6.5,
		Description: "Dynamic module import from a runtime value",
		Pattern:     `__import__\s*\(|importlib\.import_module\s*\(`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
		},
		BaseConfidence: 0.8,
	},

	// --- Command execution ---
	{
		ID:          "GRD-010",
		Name:        "command_execution",
		Category:    "command",
		Severity:    8.5,
		Description: "OS command execution primitive",
		Pattern:     `os\.system\s*\(|os\.popen\s*\(|subprocess\.(?:call|run|Popen|check_output)\s*\(|exec\.Command\s*\(|child_process`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextDocumentation,
		},
		IntentMultipliers: map[threat.IntentCategory]float64{
			threat.IntentSystemOps: 0.8,
			threat.IntentTesting:   0.5,
		},
		BaseConfidence: 0.85,
	},
	{
		ID:          "GRD-011",
		Name:        "shell_enabled_subprocess",
		Category:    "command",
		Severity:    7.5,
		Description: "Subprocess invoked with shell interpretation enabled",
		Pattern:     `shell\s*=\s*True`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
		},
		BaseConfidence: 0.9,
	},

	// --- Deserialization ---
	{
		ID:          "GRD-020",
		Name:        "unsafe_deserialization",
		Category:    "deserialization",
		Severity:    8.0,
		Description: "Deserialization primitive that can execute arbitrary code",
		Pattern:     `pickle\.loads?\s*\(|marshal\.loads?\s*\(|shelve\.open\s*\(|yaml\.load\s*\(|gob\.NewDecoder|ObjectInputStream`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextDocumentation,
		},
		BaseConfidence: 0.9,
	},

	// --- SQL ---
	{
		ID:          "GRD-030",
		Name:        "sql_injection",
		Category:    "injection",
		Severity:    7.0,
		Description: "SQL statement assembled by concatenation or interpolation",
		Pattern:     `(?i)(?:select|insert|update|delete)\b[^\n]*(?:\+|%s|\bformat\s*\(|f["'])`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextDocumentation,
		},
		IntentMultipliers: map[threat.IntentCategory]float64{
			threat.IntentTesting: 0.5,
		},
		BaseConfidence: 0.75,
	},

	// --- Secrets ---
	{
		ID:          "GRD-040",
		Name:        "hardcoded_credentials",
		Category:    "secrets",
		Severity:    6.0,
		Description: "Credential material assigned as a literal",
		Pattern:     `(?i)(?:password|passwd|secret|api_?key|auth_?token)\s*=\s*["'][^"']{6,}["']`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextDocumentation,
			threat.ContextTestCode,
		},
		IntentMultipliers: map[threat.IntentCategory]float64{
			threat.IntentTesting:       0.2,
			threat.IntentConfiguration: 1.2,
		},
		BaseConfidence: 0.8,
	},

	// --- Crypto ---
	{
		ID:          "GRD-050",
		Name:        "weak_hash",
		Category:    "crypto",
		Severity:    4.0,
		Description: "Weak hash algorithm in a security-relevant position",
		Pattern:     `(?i)\b(?:md5|sha1)\s*\(|hashlib\.(?:md5|sha1)\b`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextTestCode,
		},
		IntentMultipliers: map[threat.IntentCategory]float64{
			threat.IntentDataProcessing: 0.6,
		},
		BaseConfidence: 0.6,
	},

	// --- Filesystem ---
	{
		ID:          "GRD-060",
		Name:        "dynamic_file_path",
		Category:    "path",
		Severity:    5.0,
		Description: "File opened with a concatenated path",
		Pattern:     `(?m)(?:^|[^\w.])open\s*\([^)\n]*\+`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextTestCode,
		},
		BaseConfidence: 0.65,
	},
	{
		ID:          "GRD-061",
		Name:        "path_traversal_literal",
		Category:    "path",
		Severity:    5.5,
		Description: "Parent-directory traversal sequence in a path expression",
		Pattern:     `\.\./\.\./`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextTestCode,
		},
		BaseConfidence: 0.6,
	},

	// --- Network egress ---
	{
		ID:          "GRD-070",
		Name:        "raw_socket_listener",
		Category:    "network",
		Severity:    5.0,
		Description: "Raw socket bound or exposed process-wide",
		Pattern:     `socket\.socket\s*\(|\.bind\s*\(\s*\(\s*["']0\.0\.0\.0`,
		SafeContexts: []threat.CodeContext{
			threat.ContextComment,
			threat.ContextStringLiteral,
			threat.ContextTestCode,
		},
		BaseConfidence: 0.6,
	},
}
