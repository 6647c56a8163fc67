// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scan orchestrates the analysis layers into a single
// pipeline: signature matching with context and intent adjustment,
// then governed optional structural and data-flow layers, then final
// aggregation. Results are cached by content hash.
package scan

import (
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// MaxInputBytes is the hard input ceiling. Larger snippets are
// rejected, not truncated.
const MaxInputBytes = 1 << 20

// deepLayerSizeLimit is the largest input that still runs the
// structural and data-flow layers.
const deepLayerSizeLimit = 128 << 10

// Budget is the time allowance the governor grants one scan.
//
// Description:
//
//	Budgets are tiered by input size. Optional layers only run when
//	the input is small enough and the base layer consumed less than
//	half of the tier budget; analysis quality degrades before latency
//	does.
type Budget struct {
	// TimeLimit bounds the whole scan.
	TimeLimit time.Duration

	// DeepLayers reports whether the structural and data-flow layers
	// may run at all for this input size.
	DeepLayers bool
}

// budgetTiers maps input size ceilings to time limits.
var budgetTiers = []struct {
	maxBytes int
	limit    time.Duration
}{
	{2 << 10, 50 * time.Millisecond},
	{32 << 10, 200 * time.Millisecond},
	{128 << 10, 500 * time.Millisecond},
}

// ceilingLimit applies above the largest tier.
const ceilingLimit = 1000 * time.Millisecond

// BudgetFor returns the budget for an input of the given size.
//
// Outputs:
//
//	Budget - The granted budget.
//	error - threat.ErrInputTooLarge when size exceeds MaxInputBytes.
func BudgetFor(size int) (Budget, error) {
	if size > MaxInputBytes {
		return Budget{}, fmt.Errorf("%w: %d bytes exceeds limit %d", threat.ErrInputTooLarge, size, MaxInputBytes)
	}
	for _, tier := range budgetTiers {
		if size <= tier.maxBytes {
			return Budget{TimeLimit: tier.limit, DeepLayers: size <= deepLayerSizeLimit}, nil
		}
	}
	return Budget{TimeLimit: ceilingLimit, DeepLayers: false}, nil
}

// AllowOptional reports whether optional layers may still run after
// the base layer spent the given time.
func (b Budget) AllowOptional(baseElapsed time.Duration) bool {
	return b.DeepLayers && baseElapsed < b.TimeLimit/2
}

// LayerSlice returns the time slice granted to each optional layer:
// half of whatever the base layer left on the clock. A layer that
// overruns its slice forfeits its contribution.
func (b Budget) LayerSlice(baseElapsed time.Duration) time.Duration {
	remaining := b.TimeLimit - baseElapsed
	if remaining < 0 {
		return 0
	}
	return remaining / 2
}
