// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/audit"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

func TestServiceAnalyze_Defaults(t *testing.T) {
	svc := NewService()

	result, hash, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Code: "value = eval(expr)",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	// Moderate is the default level, python the default language.
	assert.NotEmpty(t, hash)
	assert.NotEmpty(t, result.Findings)
	assert.Greater(t, result.RiskScore, 0.0)
}

func TestServiceAnalyze_InvalidLevel(t *testing.T) {
	svc := NewService()

	_, _, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Code:          "x = 1",
		SecurityLevel: "maximum",
	})
	require.ErrorIs(t, err, threat.ErrInvalidSecurityLevel)
}

func TestServiceAnalyze_UnsupportedLanguage(t *testing.T) {
	svc := NewService()

	_, _, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Code:     "x = 1",
		Language: "cobol",
	})
	require.ErrorIs(t, err, threat.ErrUnsupportedLanguage)
}

func TestServiceAnalyze_ConfiguredDefaultLevel(t *testing.T) {
	store, err := audit.Open(audit.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(WithAuditStore(store), WithDefaultLevel(threat.LevelStrict))

	_, hash, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Code: "value = eval(expr)",
	})
	require.NoError(t, err)

	record, found, err := store.Get(hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "strict", record.SecurityLevel)
}

func TestServiceAnalyze_WritesAuditRecord(t *testing.T) {
	store, err := audit.Open(audit.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(WithAuditStore(store))

	result, hash, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Code:          "os.system(command)",
		Language:      "python",
		SecurityLevel: "strict",
	})
	require.NoError(t, err)

	record, found, err := store.Get(hash)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, hash, record.ContentHash)
	assert.Equal(t, "python", record.Language)
	assert.Equal(t, "strict", record.SecurityLevel)
	assert.InDelta(t, result.RiskScore, record.RiskScore, 1e-9)
	assert.Equal(t, string(result.RiskLevel), record.RiskLevel)
	assert.Equal(t, len(result.Findings), record.FindingCount)
}

func TestServiceStats_IncludesAuditCount(t *testing.T) {
	store, err := audit.Open(audit.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(WithAuditStore(store))

	_, _, err = svc.Analyze(context.Background(), AnalyzeRequest{Code: "a = eval(b)"})
	require.NoError(t, err)
	_, _, err = svc.Analyze(context.Background(), AnalyzeRequest{Code: "import pickle"})
	require.NoError(t, err)

	stats := svc.Stats()
	assert.Equal(t, 2, stats.AuditRecords)
	assert.Equal(t, 2, stats.CacheEntries)
	assert.NotZero(t, stats.Signatures)
}

func TestServicePatterns_OmitsRegexes(t *testing.T) {
	svc := NewService()

	resp := svc.Patterns()
	require.NotEmpty(t, resp.Patterns)
	assert.Equal(t, resp.Count, len(resp.Patterns))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	// The detection regexes stay server-side.
	assert.NotContains(t, string(raw), "(?:^|[^\\w.])")
}
