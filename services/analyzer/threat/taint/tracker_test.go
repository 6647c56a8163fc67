// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package taint

import (
	"strings"
	"testing"
)

func TestTrackDirectFlow(t *testing.T) {
	tr := NewTracker()
	code := "user_code = input('Code: ')\nresult = eval(user_code)"

	report := tr.Track(code)
	if report.FlowsDetected != 1 {
		t.Fatalf("FlowsDetected = %d, want 1", report.FlowsDetected)
	}
	flow := report.FlowDetails[0]
	if flow.SourceType != "user_input" || flow.SinkType != "code_execution" {
		t.Errorf("flow endpoints = %s -> %s", flow.SourceType, flow.SinkType)
	}
	if flow.SourceLine != 1 || flow.SinkLine != 2 || flow.LineDistance != 1 {
		t.Errorf("lines = %d -> %d (distance %d)", flow.SourceLine, flow.SinkLine, flow.LineDistance)
	}
	wantConf := 0.88
	if diff := flow.Confidence - wantConf; diff > 0.001 || diff < -0.001 {
		t.Errorf("Confidence = %.3f, want %.3f", flow.Confidence, wantConf)
	}
	if report.HighRiskFlows != 1 {
		t.Errorf("HighRiskFlows = %d, want 1", report.HighRiskFlows)
	}
}

func TestTrackIndirectChain(t *testing.T) {
	tr := NewTracker()
	code := strings.Join([]string{
		"data = input('> ')",
		"staged = data",
		"os.system(staged)",
	}, "\n")

	report := tr.Track(code)
	if report.FlowsDetected != 1 {
		t.Fatalf("FlowsDetected = %d, want 1", report.FlowsDetected)
	}
	flow := report.FlowDetails[0]
	if flow.Variable != "staged" {
		t.Errorf("Variable = %q, want staged", flow.Variable)
	}
	if len(flow.Chain) != 2 || flow.Chain[0] != "data" || flow.Chain[1] != "staged" {
		t.Errorf("Chain = %v, want [data staged]", flow.Chain)
	}
	// One hop decays confidence by 0.8 before the distance penalty.
	wantConf := 0.9*0.8 - 0.02
	if diff := flow.Confidence - wantConf; diff > 0.001 || diff < -0.001 {
		t.Errorf("Confidence = %.3f, want %.3f", flow.Confidence, wantConf)
	}
}

func TestTrackDistanceLimit(t *testing.T) {
	tr := NewTracker()
	var b strings.Builder
	b.WriteString("payload = input('> ')\n")
	for i := 0; i < 25; i++ {
		b.WriteString("x = 1\n")
	}
	b.WriteString("eval(payload)\n")

	report := tr.Track(b.String())
	if report.FlowsDetected != 0 {
		t.Errorf("FlowsDetected = %d, want 0 beyond max distance", report.FlowsDetected)
	}
}

func TestTrackReassignmentClearsTaint(t *testing.T) {
	tr := NewTracker()
	code := strings.Join([]string{
		"cmd = input('> ')",
		"cmd = 'ls -la'",
		"os.system(cmd)",
	}, "\n")

	report := tr.Track(code)
	if report.FlowsDetected != 0 {
		t.Errorf("FlowsDetected = %d, want 0 after clean reassignment", report.FlowsDetected)
	}
}

func TestTrackUntaintedSink(t *testing.T) {
	tr := NewTracker()
	report := tr.Track("eval('2 + 2')")
	if report.FlowsDetected != 0 {
		t.Errorf("FlowsDetected = %d, want 0 for constant argument", report.FlowsDetected)
	}
}

func TestTrackEmptyInput(t *testing.T) {
	tr := NewTracker()
	report := tr.Track("")
	if report == nil {
		t.Fatal("Track returned nil report")
	}
	if report.FlowsDetected != 0 || len(report.FlowDetails) != 0 {
		t.Errorf("empty input produced flows: %+v", report)
	}
}

func TestTrackLowConfidenceSuppressed(t *testing.T) {
	tr := NewTracker()
	// Structured-data sources sit below the surfacing threshold on
	// their own (0.7 minus any distance penalty).
	code := "cfg = json.loads(raw)\nresult = eval(cfg)"
	report := tr.Track(code)
	if report.FlowsDetected != 0 {
		t.Errorf("FlowsDetected = %d, want 0 below confidence threshold", report.FlowsDetected)
	}
}

func TestSeverityMultiplierPairs(t *testing.T) {
	if m := multiplierFor("user_input", "code_execution"); m != 1.5 {
		t.Errorf("user_input->code_execution = %v, want 1.5", m)
	}
	if m := multiplierFor("environment", "file_path"); m != 1.0 {
		t.Errorf("unlisted pair = %v, want 1.0", m)
	}
}
