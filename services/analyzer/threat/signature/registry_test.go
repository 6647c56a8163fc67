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

import (
	"testing"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

func TestDefaultRegistryValid(t *testing.T) {
	r := DefaultRegistry()
	if r.Len() == 0 {
		t.Fatal("default registry is empty")
	}
	for _, sig := range r.All() {
		if sig.Severity <= 0 || sig.Severity > 10 {
			t.Errorf("%s: severity %v out of range", sig.ID, sig.Severity)
		}
		if sig.Confidence() <= 0 || sig.Confidence() > 1 {
			t.Errorf("%s: confidence %v out of range", sig.ID, sig.Confidence())
		}
	}
}

func TestNewRegistryRejectsBadTable(t *testing.T) {
	tests := []struct {
		name string
		sigs []*Signature
	}{
		{
			name: "missing id",
			sigs: []*Signature{{Name: "x", Pattern: `eval`, Severity: 5}},
		},
		{
			name: "duplicate id",
			sigs: []*Signature{
				{ID: "T-1", Name: "a", Pattern: `eval`, Severity: 5},
				{ID: "T-1", Name: "b", Pattern: `exec`, Severity: 5},
			},
		},
		{
			name: "invalid pattern",
			sigs: []*Signature{{ID: "T-1", Name: "x", Pattern: `eval(`, Severity: 5}},
		},
		{
			name: "severity out of range",
			sigs: []*Signature{{ID: "T-1", Name: "x", Pattern: `eval`, Severity: 15}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.sigs); err == nil {
				t.Error("NewRegistry accepted an invalid table")
			}
		})
	}
}

func TestMatchBareCall(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name     string
		code     string
		wantID   string
		wantHits int
	}{
		{"direct eval", "result = eval(user_input)", "GRD-001", 1},
		{"attribute access excluded", "result = ast.literal_eval(x)", "GRD-001", 0},
		{"identifier suffix excluded", "result = my_eval(x)", "GRD-001", 0},
		{"line start", "eval(x)", "GRD-001", 1},
		{"os command", "os.system('ls')", "GRD-010", 1},
		{"shell flag", "subprocess.run(cmd, shell=True)", "GRD-011", 1},
		{"safe yaml excluded", "cfg = yaml.safe_load(f)", "GRD-020", 0},
		{"unsafe yaml", "cfg = yaml.load(f)", "GRD-020", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := 0
			for _, m := range r.Match(tt.code) {
				if m.Sig.ID == tt.wantID {
					hits++
				}
			}
			if hits != tt.wantHits {
				t.Errorf("matches for %s = %d, want %d", tt.wantID, hits, tt.wantHits)
			}
		})
	}
}

func TestMatchLineNumbers(t *testing.T) {
	r := DefaultRegistry()
	code := "a = 1\nb = 2\nresult = eval(payload)"
	matches := r.Match(code)
	if len(matches) == 0 {
		t.Fatal("no matches")
	}
	for _, m := range matches {
		if m.Sig.ID == "GRD-001" && m.Line != 3 {
			t.Errorf("Line = %d, want 3", m.Line)
		}
	}
}

func TestMatchOrderStable(t *testing.T) {
	r := DefaultRegistry()
	code := "eval(a)\nos.system(b)\nexec(c)"
	matches := r.Match(code)
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Start > matches[i].Start {
			t.Fatalf("matches out of offset order at %d", i)
		}
	}
}

func TestIntentModifierDefaults(t *testing.T) {
	r := DefaultRegistry()
	sig := r.Get("GRD-001")
	if sig == nil {
		t.Fatal("GRD-001 missing")
	}
	if m := sig.IntentModifier(threat.IntentTesting); m != 0.5 {
		t.Errorf("testing modifier = %v, want 0.5", m)
	}
	if m := sig.IntentModifier(threat.IntentBusinessLogic); m != 1.0 {
		t.Errorf("unlisted modifier = %v, want 1.0", m)
	}
}

func TestInSafeContext(t *testing.T) {
	r := DefaultRegistry()
	sig := r.Get("GRD-001")
	if !sig.InSafeContext(threat.ContextComment) {
		t.Error("comment not a safe context for eval")
	}
	if sig.InSafeContext(threat.ContextExecutable) {
		t.Error("executable_code reported safe for eval")
	}
}
