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
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

func TestBudgetTiers(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		wantLimit time.Duration
		wantDeep  bool
	}{
		{"tiny", 1 << 10, 50 * time.Millisecond, true},
		{"tier boundary", 2 << 10, 50 * time.Millisecond, true},
		{"small", 16 << 10, 200 * time.Millisecond, true},
		{"medium", 100 << 10, 500 * time.Millisecond, true},
		{"large", 512 << 10, 1000 * time.Millisecond, false},
		{"max", MaxInputBytes, 1000 * time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := BudgetFor(tt.size)
			if err != nil {
				t.Fatalf("BudgetFor(%d) failed: %v", tt.size, err)
			}
			if b.TimeLimit != tt.wantLimit {
				t.Errorf("TimeLimit = %v, want %v", b.TimeLimit, tt.wantLimit)
			}
			if b.DeepLayers != tt.wantDeep {
				t.Errorf("DeepLayers = %v, want %v", b.DeepLayers, tt.wantDeep)
			}
		})
	}
}

func TestBudgetForTooLarge(t *testing.T) {
	_, err := BudgetFor(MaxInputBytes + 1)
	if !errors.Is(err, threat.ErrInputTooLarge) {
		t.Errorf("err = %v, want ErrInputTooLarge", err)
	}
}

func TestAllowOptional(t *testing.T) {
	b := Budget{TimeLimit: 100 * time.Millisecond, DeepLayers: true}
	if !b.AllowOptional(10 * time.Millisecond) {
		t.Error("fast base layer denied optional layers")
	}
	if b.AllowOptional(60 * time.Millisecond) {
		t.Error("slow base layer granted optional layers")
	}

	noDeep := Budget{TimeLimit: 1000 * time.Millisecond, DeepLayers: false}
	if noDeep.AllowOptional(time.Millisecond) {
		t.Error("oversized input granted deep layers")
	}
}

func TestLayerSlice(t *testing.T) {
	b := Budget{TimeLimit: 100 * time.Millisecond, DeepLayers: true}
	if got := b.LayerSlice(20 * time.Millisecond); got != 40*time.Millisecond {
		t.Errorf("LayerSlice = %v, want 40ms", got)
	}
	if got := b.LayerSlice(100 * time.Millisecond); got != 0 {
		t.Errorf("LayerSlice at exhausted budget = %v, want 0", got)
	}
	if got := b.LayerSlice(150 * time.Millisecond); got != 0 {
		t.Errorf("LayerSlice past budget = %v, want 0", got)
	}
}
