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
	"log/slog"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

const (
	// PromoteConfidence is the minimum insight confidence for
	// promotion into a finding.
	PromoteConfidence = 0.7

	// insightWeight scales an insight's risk contribution.
	insightWeight = 0.5
)

// Extractor runs syntax tree providers and converts their insights
// into findings.
//
// Description:
//
//	The extractor resolves a provider by language, runs it, and
//	promotes insights with confidence above PromoteConfidence into
//	findings on the ast layer. Provider errors and panics degrade to
//	an empty report with ParseSucceeded false; structural analysis
//	never makes a scan fail.
//
// Thread Safety:
//
//	Extractor is safe for concurrent use.
type Extractor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewExtractor creates an extractor over the given registry. A nil
// registry uses the default one; a nil logger uses slog.Default.
func NewExtractor(registry *Registry, logger *slog.Logger) *Extractor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{registry: registry, logger: logger}
}

// Supported reports whether a provider exists for the language.
func (e *Extractor) Supported(language string) bool {
	return e.registry.ForLanguage(language) != nil
}

// Languages lists the languages with a registered provider, sorted.
func (e *Extractor) Languages() []string {
	return e.registry.Languages()
}

// Analyze runs structural analysis and returns the report with any
// promoted findings.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	code - The snippet.
//	language - Canonical lowercase language name.
//
// Outputs:
//
//	*threat.ASTReport - Never nil.
//	[]threat.Finding - Promoted findings, possibly empty.
func (e *Extractor) Analyze(ctx context.Context, code, language string) (report *threat.ASTReport, findings []threat.Finding) {
	report = &threat.ASTReport{}
	findings = make([]threat.Finding, 0)

	provider := e.registry.ForLanguage(language)
	if provider == nil {
		return report, findings
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("syntax analysis panicked",
				slog.String("language", language),
				slog.Any("panic", r))
			report = &threat.ASTReport{}
			findings = findings[:0]
		}
	}()

	insights, err := provider.Analyze(ctx, []byte(code))
	if err != nil {
		e.logger.Debug("syntax analysis failed",
			slog.String("language", language),
			slog.String("error", err.Error()))
		return report, findings
	}

	report.ParseSucceeded = true
	report.InsightsFound = len(insights)

	for _, ins := range insights {
		if ins.Confidence <= PromoteConfidence {
			continue
		}
		report.HighConfidenceCount++
		report.RiskEnhancement += ins.Risk * ins.Confidence * insightWeight
		findings = append(findings, threat.Finding{
			Type:           ins.Kind,
			Description:    ins.Detail,
			Severity:       ins.Risk,
			ContextualRisk: ins.Risk * ins.Confidence,
			Line:           ins.Line,
			Confidence:     ins.Confidence,
			Layer:          threat.LayerAST,
		})
	}
	return report, findings
}
