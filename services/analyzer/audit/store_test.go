// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package audit

import (
	"testing"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}

func TestWriteAndGet(t *testing.T) {
	s := newTestStore(t)

	analysis := &threat.ThreatAnalysis{
		RiskScore:        13.3,
		RiskLevel:        threat.RiskHigh,
		Findings:         []threat.Finding{{Type: "code_injection_eval"}},
		ProcessingTimeMs: 4,
	}
	if err := s.Write("abc123", "python", threat.LevelModerate, analysis); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rec, ok, err := s.Get("abc123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("record not found after write")
	}
	if rec.RiskLevel != "high" || rec.FindingCount != 1 || rec.Language != "python" {
		t.Errorf("record = %+v", rec)
	}
	if rec.RecordedAt.IsZero() {
		t.Error("RecordedAt not set")
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("missing key reported found")
	}
}

func TestWriteNilAnalysis(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write("abc", "python", threat.LevelModerate, nil); err == nil {
		t.Error("Write accepted nil analysis")
	}
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	analysis := &threat.ThreatAnalysis{RiskLevel: threat.RiskSafe}
	for _, hash := range []string{"h1", "h2", "h3"} {
		if err := s.Write(hash, "python", threat.LevelStrict, analysis); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	// Same hash overwrites, not appends.
	if err := s.Write("h1", "python", threat.LevelStrict, analysis); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
