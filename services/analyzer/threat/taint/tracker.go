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
	"regexp"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

const (
	// maxDirectDistance is the longest source-to-sink span, in lines,
	// that a flow may cover.
	maxDirectDistance = 20

	// maxHopDistance is the longest span one assignment hop may cover
	// in an indirect chain.
	maxHopDistance = 10

	// hopDecay scales confidence per intermediate assignment hop.
	hopDecay = 0.8

	// distancePenaltyPerLine and maxDistancePenalty bound the
	// confidence reduction for long flows.
	distancePenaltyPerLine = 0.02
	maxDistancePenalty     = 0.3

	// surfaceThreshold is the minimum confidence for a flow to be
	// reported at all.
	surfaceThreshold = 0.7

	// highRiskThreshold marks a reported flow as high risk.
	highRiskThreshold = 7.0

	// farDistance flows beyond this many lines take an extra risk
	// reduction; proximity is evidence of causality.
	farDistance      = 5
	farRiskReduction = 0.8
)

// assignmentRe captures simple `name = expr` bindings. Compound
// operators and tuple unpacking are out of scope.
var assignmentRe = regexp.MustCompile(`^\s*(?:var\s+)?([A-Za-z_]\w*)\s*(?::?=)\s*(.+)$`)

// identRe finds identifiers inside an expression.
var identRe = regexp.MustCompile(`[A-Za-z_]\w*`)

// taintedVar is a variable carrying untrusted data.
type taintedVar struct {
	name       string
	source     *SourcePattern
	line       int
	hops       int
	chain      []string
	confidence float64
}

// Tracker detects source-to-sink data flows in a snippet.
//
// Description:
//
//	The tracker scans line by line: a source expression assigned to a
//	variable taints it, assignments copying a tainted variable
//	propagate the taint with decayed confidence, and a sink call whose
//	arguments mention a tainted variable produces a flow. Flow
//	confidence is the minimum of the endpoint confidences minus a
//	capped distance penalty, further decayed per indirect hop. Flows
//	below the surfacing threshold are dropped.
//
// Thread Safety:
//
//	Tracker is safe for concurrent use. All state is per-call.
type Tracker struct {
	sources []SourcePattern
	sinks   []SinkPattern
}

// NewTracker creates a tracker with the default source and sink
// tables.
func NewTracker() *Tracker {
	return &Tracker{sources: defaultSources, sinks: defaultSinks}
}

// NewTrackerWithPatterns creates a tracker with custom tables for
// specialized rule sets.
func NewTrackerWithPatterns(sources []SourcePattern, sinks []SinkPattern) *Tracker {
	return &Tracker{sources: sources, sinks: sinks}
}

// Track analyzes a snippet and returns the flow report.
//
// Inputs:
//
//	code - The snippet. May be empty.
//
// Outputs:
//
//	*threat.FlowReport - Never nil. Empty report when no flows
//	survive the confidence threshold.
func (t *Tracker) Track(code string) *threat.FlowReport {
	report := &threat.FlowReport{FlowDetails: make([]threat.FlowDetail, 0)}
	if code == "" {
		return report
	}

	lines := strings.Split(code, "\n")
	tainted := make(map[string]*taintedVar)
	seen := make(map[string]bool)

	for i, line := range lines {
		lineNo := i + 1

		// Sinks first: a line like `b = eval(a)` must report the flow
		// into eval before `b` picks up taint from the same line.
		t.checkSinks(line, lineNo, tainted, seen, report)

		name, expr, ok := splitAssignment(line)
		if !ok {
			continue
		}

		if src := t.matchSource(expr); src != nil {
			tainted[name] = &taintedVar{
				name:       name,
				source:     src,
				line:       lineNo,
				chain:      []string{name},
				confidence: src.Confidence,
			}
			continue
		}

		// Propagation: copying a tainted identifier taints the target.
		if tv := t.propagatedFrom(expr, lineNo, tainted); tv != nil {
			if name != tv.name {
				tainted[name] = &taintedVar{
					name:       name,
					source:     tv.source,
					line:       lineNo,
					hops:       tv.hops + 1,
					chain:      append(append([]string(nil), tv.chain...), name),
					confidence: tv.confidence * hopDecay,
				}
			}
			continue
		}

		// Reassignment from a clean expression clears the taint.
		delete(tainted, name)
	}

	sort.Slice(report.FlowDetails, func(a, b int) bool {
		if report.FlowDetails[a].SinkLine != report.FlowDetails[b].SinkLine {
			return report.FlowDetails[a].SinkLine < report.FlowDetails[b].SinkLine
		}
		return report.FlowDetails[a].Variable < report.FlowDetails[b].Variable
	})
	report.FlowsDetected = len(report.FlowDetails)
	return report
}

// checkSinks records a flow for every tainted variable consumed by a
// sink call on this line.
func (t *Tracker) checkSinks(
	line string,
	lineNo int,
	tainted map[string]*taintedVar,
	seen map[string]bool,
	report *threat.FlowReport,
) {
	for si := range t.sinks {
		sink := &t.sinks[si]
		loc := sink.Pattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		args := line[loc[1]:]

		for _, tv := range tainted {
			if !mentionsIdent(args, tv.name) {
				continue
			}
			distance := lineNo - tv.line
			if distance < 0 || distance > maxDirectDistance {
				continue
			}
			if tv.hops > 0 && distance > tv.hops*maxHopDistance+maxHopDistance {
				continue
			}

			confidence := minFloat(tv.confidence, sink.Confidence) -
				minFloat(float64(distance)*distancePenaltyPerLine, maxDistancePenalty)
			if confidence < surfaceThreshold {
				continue
			}

			risk := (tv.source.Risk + sink.Risk) / 2 * multiplierFor(tv.source.Type, sink.Type)
			if distance > farDistance {
				risk *= farRiskReduction
			}

			key := tv.source.Type + "|" + sink.Type + "|" + tv.name
			if seen[key] {
				continue
			}
			seen[key] = true

			detail := threat.FlowDetail{
				Variable:     tv.name,
				SourceType:   tv.source.Type,
				SinkType:     sink.Type,
				SourceLine:   tv.line,
				SinkLine:     lineNo,
				LineDistance: distance,
				Chain:        append([]string(nil), tv.chain...),
				Risk:         risk,
				Confidence:   confidence,
			}
			report.FlowDetails = append(report.FlowDetails, detail)
			if risk >= highRiskThreshold {
				report.HighRiskFlows++
			}
		}
	}
}

// matchSource returns the first source pattern matching the
// expression, or nil.
func (t *Tracker) matchSource(expr string) *SourcePattern {
	for i := range t.sources {
		if t.sources[i].Pattern.MatchString(expr) {
			return &t.sources[i]
		}
	}
	return nil
}

// propagatedFrom returns the tainted variable referenced by the
// expression when the hop stays within range, or nil.
func (t *Tracker) propagatedFrom(expr string, lineNo int, tainted map[string]*taintedVar) *taintedVar {
	var best *taintedVar
	for _, ident := range identRe.FindAllString(expr, -1) {
		tv, ok := tainted[ident]
		if !ok {
			continue
		}
		if lineNo-tv.line > maxHopDistance {
			continue
		}
		if best == nil || tv.confidence > best.confidence {
			best = tv
		}
	}
	return best
}

// splitAssignment parses a simple single-target assignment.
func splitAssignment(line string) (name, expr string, ok bool) {
	m := assignmentRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	// Comparison operators are not assignments.
	if strings.Contains(line, "==") || strings.Contains(line, "!=") ||
		strings.Contains(line, ">=") || strings.Contains(line, "<=") {
		return "", "", false
	}
	return m[1], m[2], true
}

// mentionsIdent reports whether the identifier appears in the text as
// a whole word.
func mentionsIdent(text, name string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], name)
		if i < 0 {
			return false
		}
		i += idx
		beforeOK := i == 0 || !isWordByte(text[i-1])
		after := i + len(name)
		afterOK := after >= len(text) || !isWordByte(text[after])
		if beforeOK && afterOK {
			return true
		}
		idx = i + len(name)
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
