// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package astinsight

import (
	"context"
	"testing"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

func TestPythonDangerousCall(t *testing.T) {
	p := NewPythonProvider()
	insights, err := p.Analyze(context.Background(), []byte("result = eval(user_input)"))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var found *Insight
	for i := range insights {
		if insights[i].Kind == "dangerous_call" {
			found = &insights[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("no dangerous_call insight in %+v", insights)
	}
	if found.Line != 1 {
		t.Errorf("Line = %d, want 1", found.Line)
	}
	if found.Risk != 9.0 || found.Confidence != 0.95 {
		t.Errorf("risk/confidence = %v/%v, want 9.0/0.95", found.Risk, found.Confidence)
	}
}

func TestPythonAliasedCall(t *testing.T) {
	p := NewPythonProvider()
	code := "f = eval\nf(payload)"
	insights, err := p.Analyze(context.Background(), []byte(code))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	kinds := make(map[string]int)
	for _, ins := range insights {
		kinds[ins.Kind]++
	}
	if kinds["dangerous_alias"] != 1 {
		t.Errorf("dangerous_alias count = %d, want 1", kinds["dangerous_alias"])
	}
	if kinds["indirect_dangerous_call"] != 1 {
		t.Errorf("indirect_dangerous_call count = %d, want 1", kinds["indirect_dangerous_call"])
	}
}

func TestPythonStringBuild(t *testing.T) {
	p := NewPythonProvider()
	code := `os.system("ping " + host)`
	insights, err := p.Analyze(context.Background(), []byte(code))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var hasBuild, hasCall bool
	for _, ins := range insights {
		switch ins.Kind {
		case "tainted_string_build":
			hasBuild = true
		case "dangerous_call":
			hasCall = true
		}
	}
	if !hasCall {
		t.Error("missing dangerous_call for os.system")
	}
	if !hasBuild {
		t.Error("missing tainted_string_build for concatenated argument")
	}
}

func TestPythonRiskyImport(t *testing.T) {
	p := NewPythonProvider()
	insights, err := p.Analyze(context.Background(), []byte("import pickle"))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(insights) != 1 || insights[0].Kind != "risky_import" {
		t.Fatalf("insights = %+v, want single risky_import", insights)
	}
}

func TestPythonCleanSnippet(t *testing.T) {
	p := NewPythonProvider()
	insights, err := p.Analyze(context.Background(), []byte("import json\ndata = json.loads(raw)"))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(insights) != 0 {
		t.Errorf("insights = %+v, want none for safe parsing", insights)
	}
}

func TestGoDangerousCall(t *testing.T) {
	p := NewGoProvider()
	insights, err := p.Analyze(context.Background(), []byte(`cmd := exec.Command("sh", "-c", script)`))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var found bool
	for _, ins := range insights {
		if ins.Kind == "dangerous_call" && ins.Line == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("no dangerous_call at line 1 in %+v", insights)
	}
}

func TestExtractorPromotesHighConfidence(t *testing.T) {
	e := NewExtractor(nil, nil)
	report, findings := e.Analyze(context.Background(), "result = eval(user_input)", "python")
	if !report.ParseSucceeded {
		t.Fatal("ParseSucceeded = false")
	}
	if report.HighConfidenceCount == 0 {
		t.Fatal("HighConfidenceCount = 0, want at least 1")
	}
	if len(findings) != report.HighConfidenceCount {
		t.Errorf("findings = %d, HighConfidenceCount = %d", len(findings), report.HighConfidenceCount)
	}
	for _, f := range findings {
		if f.Layer != threat.LayerAST {
			t.Errorf("Layer = %q, want %q", f.Layer, threat.LayerAST)
		}
		if f.Confidence <= PromoteConfidence {
			t.Errorf("promoted finding with confidence %v", f.Confidence)
		}
	}
	if report.RiskEnhancement <= 0 {
		t.Errorf("RiskEnhancement = %v, want > 0", report.RiskEnhancement)
	}
}

func TestExtractorUnsupportedLanguage(t *testing.T) {
	e := NewExtractor(nil, nil)
	report, findings := e.Analyze(context.Background(), "puts 'hello'", "ruby")
	if report.ParseSucceeded {
		t.Error("ParseSucceeded = true for unsupported language")
	}
	if report.InsightsFound != 0 || len(findings) != 0 {
		t.Errorf("unsupported language produced insights: %+v", report)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewPythonProvider()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := r.Register(NewPythonProvider()); err == nil {
		t.Error("duplicate register succeeded")
	}
}
