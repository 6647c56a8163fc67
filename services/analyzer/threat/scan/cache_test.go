// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scan

import (
	"fmt"
	"testing"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

func sampleAnalysis() *threat.ThreatAnalysis {
	return &threat.ThreatAnalysis{
		RiskScore: 9.0,
		RiskLevel: threat.RiskMedium,
		Findings: []threat.Finding{
			{Type: "code_injection_eval", Severity: 9.0, ContextualRisk: 9.0, Layer: threat.LayerBase},
		},
		Confidence: 0.9,
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	rc := NewResultCache(10)
	key := rc.Key("eval(x)", "python", threat.LevelModerate)

	if _, ok := rc.Get(key); ok {
		t.Fatal("empty cache returned a hit")
	}

	rc.Put(key, sampleAnalysis())
	got, ok := rc.Get(key)
	if !ok {
		t.Fatal("cache miss after Put")
	}
	if !got.Cached {
		t.Error("Cached flag not set on load")
	}
	if got.RiskScore != 9.0 || len(got.Findings) != 1 {
		t.Errorf("cached value corrupted: %+v", got)
	}
}

func TestResultCacheCloneIsolation(t *testing.T) {
	rc := NewResultCache(10)
	key := rc.Key("eval(x)", "python", threat.LevelModerate)

	original := sampleAnalysis()
	rc.Put(key, original)
	original.Findings[0].Severity = 0

	first, _ := rc.Get(key)
	first.Findings[0].Severity = 1.0
	first.RiskScore = 0

	second, _ := rc.Get(key)
	if second.Findings[0].Severity != 9.0 {
		t.Errorf("cached finding mutated: %v", second.Findings[0].Severity)
	}
	if second.RiskScore != 9.0 {
		t.Errorf("cached score mutated: %v", second.RiskScore)
	}
}

func TestResultCacheKeyDistinguishesLevel(t *testing.T) {
	rc := NewResultCache(10)
	k1 := rc.Key("eval(x)", "python", threat.LevelStrict)
	k2 := rc.Key("eval(x)", "python", threat.LevelModerate)
	k3 := rc.Key("eval(x)", "go", threat.LevelStrict)
	if k1 == k2 || k1 == k3 {
		t.Error("cache keys collide across level or language")
	}
}

func TestResultCacheEviction(t *testing.T) {
	rc := NewResultCache(3)
	keys := make([]string, 5)
	for i := range keys {
		keys[i] = rc.Key(fmt.Sprintf("snippet-%d", i), "python", threat.LevelModerate)
		rc.Put(keys[i], sampleAnalysis())
	}

	if rc.Len() != 3 {
		t.Errorf("Len = %d, want 3", rc.Len())
	}
	if _, ok := rc.Get(keys[0]); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := rc.Get(keys[4]); !ok {
		t.Error("newest entry evicted")
	}

	_, _, evictions := rc.Stats()
	if evictions != 2 {
		t.Errorf("evictions = %d, want 2", evictions)
	}
}

func TestResultCachePurge(t *testing.T) {
	rc := NewResultCache(10)
	key := rc.Key("eval(x)", "python", threat.LevelModerate)
	rc.Put(key, sampleAnalysis())
	rc.Purge()
	if rc.Len() != 0 {
		t.Errorf("Len = %d after purge", rc.Len())
	}
	if _, ok := rc.Get(key); ok {
		t.Error("purged entry still readable")
	}
}
