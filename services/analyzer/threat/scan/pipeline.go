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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/astinsight"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/classify"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/signature"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/taint"
)

const (
	// safeContextModifier applies when a match sits in one of its
	// signature's declared safe contexts.
	safeContextModifier = 0.1

	// safeUsageModifier applies when the match line uses an
	// allowlisted safe idiom.
	safeUsageModifier = 0.3

	// astEnhancementRatio caps structural risk at this fraction of
	// the base score. Structural evidence sharpens a signal; it never
	// replaces one.
	astEnhancementRatio = 0.6

	// flowEnhancementRatio and flowEnhancementFloor cap data-flow
	// risk at the larger of the fraction of base and the floor.
	flowEnhancementRatio = 0.4
	flowEnhancementFloor = 2.0

	// flowWeight scales each flow's risk contribution.
	flowWeight = 0.3
)

// acceptedLanguages are the language tokens Analyze accepts. The base
// layer is lexical and runs for all of them; structural analysis
// covers the subset with a registered provider.
var acceptedLanguages = map[string]struct{}{
	"python":     {},
	"go":         {},
	"javascript": {},
	"typescript": {},
	"java":       {},
	"ruby":       {},
	"shell":      {},
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry sets a custom signature registry.
func WithRegistry(r *signature.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithCacheCapacity sets the result cache size.
func WithCacheCapacity(n int) Option {
	return func(p *Pipeline) { p.cache = NewResultCache(n) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithTracker sets a custom taint tracker.
func WithTracker(t *taint.Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

// WithExtractor sets a custom structural extractor.
func WithExtractor(e *astinsight.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// Pipeline runs the full layered analysis for one snippet.
//
// Description:
//
//	Analyze validates the request against the governor, consults the
//	result cache, then runs the base signature layer with context and
//	intent adjustment. When the budget allows, the structural and
//	data-flow layers run and their capped enhancements are added. A
//	final guard forces the safe level whenever no finding survived,
//	no matter what the optional layers reported. Concurrent identical
//	requests are deduplicated.
//
// Thread Safety:
//
//	Pipeline is safe for concurrent use.
type Pipeline struct {
	registry  *signature.Registry
	contexts  *classify.ContextClassifier
	intents   *classify.IntentClassifier
	extractor *astinsight.Extractor
	tracker   *taint.Tracker
	cache     *ResultCache
	logger    *slog.Logger
	group     singleflight.Group
}

// NewPipeline creates a pipeline with default components.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: signature.DefaultRegistry(),
		contexts: classify.NewContextClassifier(),
		intents:  classify.NewIntentClassifier(),
		tracker:  taint.NewTracker(),
		cache:    NewResultCache(DefaultCacheCapacity),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.extractor == nil {
		p.extractor = astinsight.NewExtractor(nil, p.logger)
	}
	return p
}

// Cache exposes the result cache for stats endpoints.
func (p *Pipeline) Cache() *ResultCache { return p.cache }

// Registry exposes the signature registry.
func (p *Pipeline) Registry() *signature.Registry { return p.registry }

// Languages lists the languages with structural analysis support.
func (p *Pipeline) Languages() []string { return p.extractor.Languages() }

// Analyze runs all analysis layers on the snippet.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	code - The snippet. May be empty.
//	language - Canonical language name; empty defaults to python.
//	level - Security level controlling the finding threshold.
//
// Outputs:
//
//	*threat.ThreatAnalysis - The aggregated result. Never nil on
//	success.
//	error - threat.ErrInvalidSecurityLevel,
//	threat.ErrUnsupportedLanguage, or threat.ErrInputTooLarge.
func (p *Pipeline) Analyze(ctx context.Context, code, language string, level threat.SecurityLevel) (*threat.ThreatAnalysis, error) {
	if !level.Valid() {
		return nil, threat.ErrInvalidSecurityLevel
	}
	if language == "" {
		language = "python"
	}
	language = strings.ToLower(language)
	if _, ok := acceptedLanguages[language]; !ok {
		return nil, fmt.Errorf("%w: %q", threat.ErrUnsupportedLanguage, language)
	}

	budget, err := BudgetFor(len(code))
	if err != nil {
		return nil, err
	}

	key := p.cache.Key(code, language, level)
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	v, err, shared := p.group.Do(key, func() (any, error) {
		result := p.analyze(ctx, code, language, level, budget)
		p.cache.Put(key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	result := v.(*threat.ThreatAnalysis)
	if shared {
		result = result.Clone()
		result.Cached = true
	}
	return result, nil
}

// analyze performs the uncached scan.
func (p *Pipeline) analyze(ctx context.Context, code, language string, level threat.SecurityLevel, budget Budget) *threat.ThreatAnalysis {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, budget.TimeLimit)
	defer cancel()

	intent := p.intents.Classify(code)
	matches := p.registry.Match(code)

	findings := make([]threat.Finding, 0, len(matches))
	var base float64
	for _, m := range matches {
		cctx := p.contexts.Classify(code, m.Start)

		modifier := 1.0
		switch {
		case m.Sig.InSafeContext(cctx):
			modifier = safeContextModifier
		case cctx == threat.ContextSafeUsage:
			modifier = safeUsageModifier
		}

		risk := m.Sig.Severity * modifier * m.Sig.IntentModifier(intent)
		if risk < level.MinFindingRisk() {
			continue
		}

		findings = append(findings, threat.Finding{
			Type:           m.Sig.Name,
			Description:    m.Sig.Description,
			Severity:       m.Sig.Severity,
			ContextualRisk: risk,
			Context:        cctx,
			Intent:         intent,
			Line:           m.Line,
			MatchedText:    m.Text,
			Confidence:     m.Sig.Confidence(),
			Layer:          threat.LayerBase,
		})
		base += risk
	}

	result := &threat.ThreatAnalysis{
		RiskScore: base,
		Findings:  findings,
	}

	baseElapsed := time.Since(start)
	if budget.AllowOptional(baseElapsed) && ctx.Err() == nil {
		slice := budget.LayerSlice(baseElapsed)
		p.runStructural(ctx, code, language, base, slice, result)
		p.runDataFlow(code, base, slice, result)
	} else {
		p.logger.Debug("optional layers skipped by governance",
			slog.Int("input_bytes", len(code)),
			slog.Duration("base_elapsed", baseElapsed))
	}

	// No surviving finding means no reportable risk. Optional layers
	// cannot undo the visibility decision of the base layer.
	if len(result.Findings) == 0 {
		result.RiskScore = 0
	}

	result.RiskLevel = threat.RiskLevelFromScore(result.RiskScore)
	result.Confidence = overallConfidence(result.Findings)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	p.logger.Debug("scan complete",
		slog.String("language", language),
		slog.String("level", string(level)),
		slog.Int("findings", len(result.Findings)),
		slog.Float64("risk_score", result.RiskScore),
		slog.String("risk_level", string(result.RiskLevel)))

	return result
}

// runStructural adds the capped structural enhancement. A layer that
// overruns its slice contributes nothing.
func (p *Pipeline) runStructural(ctx context.Context, code, language string, base float64, slice time.Duration, result *threat.ThreatAnalysis) {
	if !p.extractor.Supported(language) {
		return
	}
	layerStart := time.Now()
	report, astFindings := p.extractor.Analyze(ctx, code, language)
	if time.Since(layerStart) > slice {
		p.logger.Debug("structural layer overran its slice",
			slog.Duration("slice", slice))
		return
	}

	if limit := astEnhancementRatio * base; report.RiskEnhancement > limit {
		report.RiskEnhancement = limit
	}
	result.ASTAnalysis = report
	result.Findings = append(result.Findings, astFindings...)
	result.RiskScore += report.RiskEnhancement
}

// runDataFlow adds the capped data-flow enhancement. A layer that
// overruns its slice contributes nothing.
func (p *Pipeline) runDataFlow(code string, base float64, slice time.Duration, result *threat.ThreatAnalysis) {
	layerStart := time.Now()
	report := p.tracker.Track(code)
	if time.Since(layerStart) > slice {
		p.logger.Debug("data-flow layer overran its slice",
			slog.Duration("slice", slice))
		return
	}

	var enhancement float64
	for _, flow := range report.FlowDetails {
		enhancement += flow.Risk * flow.Confidence * flowWeight
		result.Findings = append(result.Findings, threat.Finding{
			Type:           "untrusted_data_flow",
			Description:    flowDescription(flow),
			Severity:       flow.Risk,
			ContextualRisk: flow.Risk * flow.Confidence,
			Line:           flow.SinkLine,
			Confidence:     flow.Confidence,
			Layer:          threat.LayerFlow,
		})
	}

	limit := flowEnhancementRatio * base
	if limit < flowEnhancementFloor {
		limit = flowEnhancementFloor
	}
	if enhancement > limit {
		enhancement = limit
	}

	report.RiskEnhancement = enhancement
	result.DataFlowAnalysis = report
	result.RiskScore += enhancement
}

func flowDescription(flow threat.FlowDetail) string {
	return flow.SourceType + " reaches " + flow.SinkType + " via " + flow.Variable
}

// overallConfidence averages finding confidences; an empty result is
// a confident one.
func overallConfidence(findings []threat.Finding) float64 {
	if len(findings) == 0 {
		return 1.0
	}
	var sum float64
	for _, f := range findings {
		sum += f.Confidence
	}
	return sum / float64(len(findings))
}
