// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

func TestContextClassifier(t *testing.T) {
	c := NewContextClassifier()

	tests := []struct {
		name   string
		code   string
		target string
		want   threat.CodeContext
	}{
		{
			name:   "hash comment",
			code:   "# Never use eval() in production",
			target: "eval(",
			want:   threat.ContextComment,
		},
		{
			name:   "slash comment",
			code:   "x := 1 // exec.Command is risky here",
			target: "exec.Command",
			want:   threat.ContextComment,
		},
		{
			name:   "string literal",
			code:   `msg = "calling eval( is unsafe"`,
			target: "eval(",
			want:   threat.ContextStringLiteral,
		},
		{
			name:   "documentation line",
			code:   "example: run eval(expr) to evaluate",
			target: "eval(",
			want:   threat.ContextDocumentation,
		},
		{
			name:   "test scaffolding",
			code:   "def test_eval_blocked():\n    result = eval(payload)",
			target: "eval(payload",
			want:   threat.ContextTestCode,
		},
		{
			name:   "logging statement",
			code:   `logger.info("ran %s", eval(expr))`,
			target: "eval(",
			want:   threat.ContextLogging,
		},
		{
			name:   "parameterized query",
			code:   `cursor.execute("SELECT * FROM users WHERE id = %s", (uid,))`,
			target: "SELECT",
			want:   threat.ContextSafeUsage,
		},
		{
			name:   "plain executable",
			code:   "result = eval(user_input)",
			target: "eval(",
			want:   threat.ContextExecutable,
		},
		{
			name:   "template interpolation",
			code:   "{{ eval(expr) }}",
			target: "eval(",
			want:   threat.ContextTemplate,
		},
		{
			name:   "hash inside closed string does not comment the line",
			code:   `tag = "#1"; result = eval(user_input)`,
			target: "eval(",
			want:   threat.ContextExecutable,
		},
		{
			name:   "url slashes inside closed string do not comment the line",
			code:   `target = "https://x"; eval(cmd)`,
			target: "eval(",
			want:   threat.ContextExecutable,
		},
		{
			name:   "mid-line comment after closed string",
			code:   `x = "ok"  # eval would be dangerous`,
			target: "eval",
			want:   threat.ContextComment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off := strings.Index(tt.code, tt.target)
			if off < 0 {
				t.Fatalf("target %q not found in code", tt.target)
			}
			got := c.Classify(tt.code, off)
			if got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestContextClassifierOutOfRange(t *testing.T) {
	c := NewContextClassifier()
	if got := c.Classify("eval(x)", -1); got != threat.ContextExecutable {
		t.Errorf("negative offset = %s, want executable_code", got)
	}
	if got := c.Classify("eval(x)", 999); got != threat.ContextExecutable {
		t.Errorf("oversized offset = %s, want executable_code", got)
	}
}

func TestContextClassifierSecondLine(t *testing.T) {
	c := NewContextClassifier()
	code := "# setup section\nresult = eval(user_input)"
	off := strings.LastIndex(code, "eval(")
	if got := c.Classify(code, off); got != threat.ContextExecutable {
		t.Errorf("second line = %s, want executable_code", got)
	}
}
