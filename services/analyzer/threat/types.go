// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package threat defines the data model shared by every layer of the
// Guardian analysis pipeline.
//
// # Description
//
// This package holds the closed enumerations (risk level, code context,
// snippet intent, security level), the Finding and ThreatAnalysis result
// types, and the fixed risk-level cutpoints. The detection layers
// (signature, classify, astinsight, taint, scan) all depend on this
// package and never on each other's internals.
//
// # Thread Safety
//
// All types in this package are immutable value types once constructed
// and are safe for concurrent use.
package threat

// RiskLevel is the discretized severity classification of a scan.
//
// Description:
//
//	RiskLevel is a pure function of the aggregate risk score via the
//	fixed cutpoints in RiskLevelFromScore. The values are stable wire
//	strings consumed by agent-side tooling; do not rename them.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Risk level cutpoints. These are calibration constants preserved for
// compatibility with existing agent policies; changing them changes the
// meaning of every stored report.
const (
	ScoreLow      = 1.0
	ScoreMedium   = 5.0
	ScoreHigh     = 10.0
	ScoreCritical = 20.0
)

// RiskLevelFromScore maps a risk score to its discrete level.
//
// Inputs:
//
//	score - Aggregate risk score, >= 0.
//
// Outputs:
//
//	RiskLevel - safe (<1), low [1,5), medium [5,10), high [10,20),
//	critical (>=20).
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score < ScoreLow:
		return RiskSafe
	case score < ScoreMedium:
		return RiskLow
	case score < ScoreHigh:
		return RiskMedium
	case score < ScoreCritical:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// SecurityLevel selects how aggressively low-risk findings are reported.
type SecurityLevel string

const (
	// LevelStrict keeps findings with contextual risk >= 1.0.
	LevelStrict SecurityLevel = "strict"

	// LevelModerate keeps findings with contextual risk >= 2.0.
	LevelModerate SecurityLevel = "moderate"

	// LevelRelaxed uses the moderate threshold; it differs from moderate
	// only in transport-side report verbosity, not in scoring.
	LevelRelaxed SecurityLevel = "relaxed"
)

// MinFindingRisk returns the minimum contextual risk a finding must
// carry to survive base aggregation at this security level.
func (s SecurityLevel) MinFindingRisk() float64 {
	if s == LevelStrict {
		return 1.0
	}
	return 2.0
}

// Valid reports whether s is a recognized security level.
func (s SecurityLevel) Valid() bool {
	switch s {
	case LevelStrict, LevelModerate, LevelRelaxed:
		return true
	}
	return false
}

// CodeContext labels the syntactic situation surrounding one signature
// match. Classification is deterministic and total: when no other
// context applies, a match is executable code.
type CodeContext string

const (
	ContextComment       CodeContext = "comment"
	ContextStringLiteral CodeContext = "string_literal"
	ContextDocumentation CodeContext = "documentation"
	ContextTestCode      CodeContext = "test_code"
	ContextConfiguration CodeContext = "configuration"
	ContextLogging       CodeContext = "logging"
	ContextTemplate      CodeContext = "template"
	ContextSafeUsage     CodeContext = "safe_usage"
	ContextExecutable    CodeContext = "executable_code"
)

// IntentCategory labels the inferred overall purpose of a snippet.
type IntentCategory string

const (
	IntentConfiguration  IntentCategory = "configuration"
	IntentLogging        IntentCategory = "logging"
	IntentDataProcessing IntentCategory = "data_processing"
	IntentTesting        IntentCategory = "testing"
	IntentDocumentation  IntentCategory = "documentation"
	IntentValidation     IntentCategory = "validation"
	IntentSystemOps      IntentCategory = "system_operations"
	IntentUserInterface  IntentCategory = "user_interface"
	IntentBusinessLogic  IntentCategory = "business_logic"
	IntentUnknown        IntentCategory = "unknown"
)

// Layer tags recorded on findings so a report shows which stage of the
// pipeline produced each one.
const (
	LayerBase = "base"
	LayerAST  = "ast"
	LayerFlow = "data_flow"
)

// Finding is one detected issue surfaced in a scan result.
//
// Description:
//
//	A Finding is created per signature match (or per promoted AST
//	insight / taint flow) and is immutable once produced. Findings are
//	collected in insertion order per scan.
type Finding struct {
	// Type is the signature or insight name (e.g. code_injection).
	Type string `json:"type"`

	// Description explains the issue in one sentence.
	Description string `json:"description"`

	// Severity is the signature's base severity (0-10).
	Severity float64 `json:"severity"`

	// ContextualRisk is severity after context and intent modifiers.
	ContextualRisk float64 `json:"contextual_risk"`

	// Context is the syntactic situation of the match.
	Context CodeContext `json:"context"`

	// Intent is the snippet-level intent at scan time.
	Intent IntentCategory `json:"intent"`

	// Line is the 1-based line number of the match.
	Line int `json:"line"`

	// MatchedText is the matched source fragment, truncated for audit.
	MatchedText string `json:"matched_text"`

	// Confidence is the detection confidence (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// Layer tags the pipeline stage that produced this finding.
	Layer string `json:"layer"`
}

// ASTReport summarizes the optional syntax-tree insight layer. The
// report is present only when the layer ran; a governance skip leaves
// the field nil.
type ASTReport struct {
	InsightsFound       int     `json:"insights_found"`
	HighConfidenceCount int     `json:"high_confidence_insights"`
	RiskEnhancement     float64 `json:"risk_enhancement"`
	ParseSucceeded      bool    `json:"parse_succeeded"`
}

// FlowDetail describes one surfaced source-to-sink flow.
type FlowDetail struct {
	Variable     string   `json:"variable"`
	SourceType   string   `json:"source_type"`
	SinkType     string   `json:"sink_type"`
	SourceLine   int      `json:"source_line"`
	SinkLine     int      `json:"sink_line"`
	LineDistance int      `json:"line_distance"`
	Chain        []string `json:"chain,omitempty"`
	Risk         float64  `json:"risk"`
	Confidence   float64  `json:"confidence"`
}

// FlowReport summarizes the optional taint flow layer.
type FlowReport struct {
	FlowsDetected   int          `json:"flows_detected"`
	HighRiskFlows   int          `json:"high_risk_flows"`
	RiskEnhancement float64      `json:"risk_enhancement"`
	FlowDetails     []FlowDetail `json:"flow_details,omitempty"`
}

// ThreatAnalysis is the single result every scan produces.
//
// Description:
//
//	RiskScore is monotonically non-decreasing as optional layers are
//	merged in: enhancements add to the base score and never subtract
//	from it. RiskLevel is always RiskLevelFromScore(RiskScore).
type ThreatAnalysis struct {
	// RiskScore is the aggregate risk score, >= 0.
	RiskScore float64 `json:"risk_score"`

	// RiskLevel is the discretized classification of RiskScore.
	RiskLevel RiskLevel `json:"risk_level"`

	// Findings is the ordered list of detected issues.
	Findings []Finding `json:"findings"`

	// Confidence is the overall confidence in this analysis (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// ProcessingTimeMs is wall time spent producing this analysis.
	ProcessingTimeMs int64 `json:"processing_time_ms"`

	// ASTAnalysis is present when the syntax-tree layer ran.
	ASTAnalysis *ASTReport `json:"ast_analysis,omitempty"`

	// DataFlowAnalysis is present when the taint flow layer ran.
	DataFlowAnalysis *FlowReport `json:"data_flow_analysis,omitempty"`

	// Cached indicates the analysis was served from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// Clone returns a deep copy safe to mutate without aliasing cached state.
func (t *ThreatAnalysis) Clone() *ThreatAnalysis {
	if t == nil {
		return nil
	}
	out := *t
	out.Findings = make([]Finding, len(t.Findings))
	copy(out.Findings, t.Findings)
	if t.ASTAnalysis != nil {
		ast := *t.ASTAnalysis
		out.ASTAnalysis = &ast
	}
	if t.DataFlowAnalysis != nil {
		flow := *t.DataFlowAnalysis
		flow.FlowDetails = make([]FlowDetail, len(t.DataFlowAnalysis.FlowDetails))
		copy(flow.FlowDetails, t.DataFlowAnalysis.FlowDetails)
		for i := range flow.FlowDetails {
			flow.FlowDetails[i].Chain = append([]string(nil), flow.FlowDetails[i].Chain...)
		}
		out.DataFlowAnalysis = &flow
	}
	return &out
}
