// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package signature holds the static vulnerability pattern table and
// its matcher. Matching is pure lookup: no context awareness, no side
// effects, and the table never changes mid-scan.
package signature

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// TableVersion tracks the signature table version.
const TableVersion = "2026.02"

// Signature defines one named vulnerability pattern.
//
// Description:
//
//	Signature carries the regex, the base severity (0-10), the contexts
//	in which a match must be suppressed, and optional per-intent risk
//	multipliers. Signatures are immutable after registry construction.
//
// Thread Safety:
//
//	Safe for concurrent use after Registry construction; the regex is
//	compiled once under sync.Once.
type Signature struct {
	// ID is the unique signature identifier (e.g. GRD-020).
	ID string

	// Name is the vulnerability name (e.g. code_injection).
	Name string

	// Category groups related signatures (execution, deserialization, ...).
	Category string

	// Severity is the base severity on the 0-10 scale.
	Severity float64

	// Description explains the vulnerability in one sentence.
	Description string

	// Pattern is the detection regex.
	Pattern string

	// SafeContexts lists contexts where a match is near-certainly benign.
	// Matches in these contexts have their risk multiplied by 0.1.
	SafeContexts []threat.CodeContext

	// IntentMultipliers scales risk per snippet intent. Missing intents
	// default to 1.0.
	IntentMultipliers map[threat.IntentCategory]float64

	// BaseConfidence is the detection confidence before context
	// adjustment (0.0-1.0). Zero means the 0.7 default.
	BaseConfidence float64

	compiled *regexp.Regexp
	once     sync.Once
}

// regex compiles the pattern lazily. Patterns in the built-in table are
// validated at registry construction, so MustCompile cannot panic here.
func (s *Signature) regex() *regexp.Regexp {
	s.once.Do(func() {
		s.compiled = regexp.MustCompile(s.Pattern)
	})
	return s.compiled
}

// InSafeContext reports whether ctx is in this signature's safe list.
func (s *Signature) InSafeContext(ctx threat.CodeContext) bool {
	for _, c := range s.SafeContexts {
		if c == ctx {
			return true
		}
	}
	return false
}

// IntentModifier returns the risk multiplier for the given intent.
func (s *Signature) IntentModifier(intent threat.IntentCategory) float64 {
	if m, ok := s.IntentMultipliers[intent]; ok {
		return m
	}
	return 1.0
}

// Confidence returns the base confidence, applying the 0.7 default.
func (s *Signature) Confidence() float64 {
	if s.BaseConfidence == 0 {
		return 0.7
	}
	return s.BaseConfidence
}

// Match is one occurrence of a signature in a snippet.
type Match struct {
	// Sig is the signature that matched. Never nil.
	Sig *Signature

	// Start and End are byte offsets of the match within the snippet.
	Start int
	End   int

	// Line is the 1-based line number of the match start.
	Line int

	// Text is the matched fragment.
	Text string
}

// Registry is the immutable signature table.
//
// Description:
//
//	Registry indexes signatures by ID and exposes Match, which runs
//	every signature's regex against a snippet and returns all
//	occurrences ordered by position. Signatures are loaded once at
//	construction; there is no mutation path after that, which is what
//	makes concurrent scans safe without locking.
type Registry struct {
	sigs []*Signature
	byID map[string]*Signature
}

// NewRegistry builds a registry from the given signatures.
//
// Description:
//
//	Validates and indexes the signature set. An invalid regex or a
//	duplicate ID is a programmer error in the table, reported
//	immediately rather than deferred to the first scan.
//
// Outputs:
//
//	*Registry - The immutable registry.
//	error - Non-nil for a malformed table.
func NewRegistry(sigs []*Signature) (*Registry, error) {
	r := &Registry{
		sigs: make([]*Signature, 0, len(sigs)),
		byID: make(map[string]*Signature, len(sigs)),
	}
	for _, s := range sigs {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("signature missing ID or name: %+v", s)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate signature ID %s", s.ID)
		}
		if _, err := regexp.Compile(s.Pattern); err != nil {
			return nil, fmt.Errorf("signature %s: invalid pattern: %w", s.ID, err)
		}
		if s.Severity < 0 || s.Severity > 10 {
			return nil, fmt.Errorf("signature %s: severity %.1f out of range", s.ID, s.Severity)
		}
		r.sigs = append(r.sigs, s)
		r.byID[s.ID] = s
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for the built-in table, where a
// malformed entry is a build-time defect.
func MustNewRegistry(sigs []*Signature) *Registry {
	r, err := NewRegistry(sigs)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns a registry over the built-in table.
func DefaultRegistry() *Registry {
	return MustNewRegistry(defaultSignatures)
}

// Get returns a signature by ID, or nil.
func (r *Registry) Get(id string) *Signature {
	return r.byID[id]
}

// Len returns the number of registered signatures.
func (r *Registry) Len() int {
	return len(r.sigs)
}

// All returns the registered signatures in table order. The returned
// slice is a copy; the signatures themselves are shared and immutable.
func (r *Registry) All() []*Signature {
	out := make([]*Signature, len(r.sigs))
	copy(out, r.sigs)
	return out
}

// Match runs every signature against the snippet.
//
// Description:
//
//	Returns all matches in snippet order (by start offset, then by
//	table order for equal offsets is not guaranteed; callers sort on
//	offset only). Line numbers are computed once per call from a
//	newline offset index.
//
// Inputs:
//
//	code - The snippet to scan.
//
// Outputs:
//
//	[]Match - All occurrences; empty (non-nil) when nothing matches.
//
// Thread Safety:
//
//	Safe for concurrent use.
func (r *Registry) Match(code string) []Match {
	matches := make([]Match, 0)
	if code == "" {
		return matches
	}

	lineIndex := buildLineIndex(code)
	for _, sig := range r.sigs {
		locs := sig.regex().FindAllStringIndex(code, -1)
		for _, loc := range locs {
			matches = append(matches, Match{
				Sig:   sig,
				Start: loc[0],
				End:   loc[1],
				Line:  lineForOffset(lineIndex, loc[0]),
				Text:  strings.TrimSpace(code[loc[0]:loc[1]]),
			})
		}
	}

	// Order by position so findings read top to bottom.
	sortMatches(matches)
	return matches
}

// buildLineIndex returns the byte offset of each line start.
func buildLineIndex(code string) []int {
	index := []int{0}
	for i := 0; i < len(code); i++ {
		if code[i] == '\n' {
			index = append(index, i+1)
		}
	}
	return index
}

// lineForOffset maps a byte offset to a 1-based line number via binary
// search over the line start index.
func lineForOffset(lineIndex []int, offset int) int {
	lo, hi := 0, len(lineIndex)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineIndex[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// sortMatches orders matches by start offset (stable insertion sort;
// match counts per snippet are small).
func sortMatches(matches []Match) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Start < matches[j-1].Start; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}
