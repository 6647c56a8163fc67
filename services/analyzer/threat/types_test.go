// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package threat

import "testing"

func TestRiskLevelFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskSafe},
		{0.99, RiskSafe},
		{1.0, RiskLow},
		{4.99, RiskLow},
		{5.0, RiskMedium},
		{9.99, RiskMedium},
		{10.0, RiskHigh},
		{19.99, RiskHigh},
		{20.0, RiskCritical},
		{100, RiskCritical},
	}
	for _, tt := range tests {
		if got := RiskLevelFromScore(tt.score); got != tt.want {
			t.Errorf("RiskLevelFromScore(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestSecurityLevelThresholds(t *testing.T) {
	if got := LevelStrict.MinFindingRisk(); got != 1.0 {
		t.Errorf("strict threshold = %v, want 1.0", got)
	}
	if got := LevelModerate.MinFindingRisk(); got != 2.0 {
		t.Errorf("moderate threshold = %v, want 2.0", got)
	}
	if got := LevelRelaxed.MinFindingRisk(); got != 2.0 {
		t.Errorf("relaxed threshold = %v, want 2.0", got)
	}
}

func TestSecurityLevelValid(t *testing.T) {
	for _, level := range []SecurityLevel{LevelStrict, LevelModerate, LevelRelaxed} {
		if !level.Valid() {
			t.Errorf("%s reported invalid", level)
		}
	}
	if SecurityLevel("paranoid").Valid() {
		t.Error("unknown level reported valid")
	}
}

func TestThreatAnalysisClone(t *testing.T) {
	original := &ThreatAnalysis{
		RiskScore: 12.5,
		RiskLevel: RiskHigh,
		Findings: []Finding{
			{Type: "code_injection_eval", Severity: 9.0, Layer: LayerBase},
		},
		ASTAnalysis:      &ASTReport{InsightsFound: 2, ParseSucceeded: true},
		DataFlowAnalysis: &FlowReport{FlowsDetected: 1, FlowDetails: []FlowDetail{{Variable: "x", Chain: []string{"x"}}}},
	}

	clone := original.Clone()
	clone.Findings[0].Severity = 0
	clone.ASTAnalysis.InsightsFound = 0
	clone.DataFlowAnalysis.FlowDetails[0].Variable = "y"
	clone.DataFlowAnalysis.FlowDetails[0].Chain[0] = "z"

	if original.Findings[0].Severity != 9.0 {
		t.Error("clone shares findings")
	}
	if original.ASTAnalysis.InsightsFound != 2 {
		t.Error("clone shares AST report")
	}
	if original.DataFlowAnalysis.FlowDetails[0].Variable != "x" {
		t.Error("clone shares flow details")
	}
	if original.DataFlowAnalysis.FlowDetails[0].Chain[0] != "x" {
		t.Error("clone shares flow chains")
	}
}

func TestCloneNil(t *testing.T) {
	var a *ThreatAnalysis
	if a.Clone() != nil {
		t.Error("nil Clone() != nil")
	}
}
