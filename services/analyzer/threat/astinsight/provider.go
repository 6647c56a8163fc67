// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package astinsight derives structural security insights from parsed
// syntax trees. It is an optional layer: providers exist per language,
// unsupported languages yield an empty report, and any provider
// failure degrades to zero insights rather than an error.
package astinsight

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Insight is one structural observation with a risk weight.
type Insight struct {
	// Kind names the observation class, e.g. dangerous_call,
	// indirect_dangerous_call, risky_import, tainted_string_build.
	Kind string

	// Detail is a short human-readable description.
	Detail string

	// Line is the 1-based source line.
	Line int

	// Risk is the raw risk weight in [0, 10].
	Risk float64

	// Confidence is the provider's certainty in (0, 1].
	Confidence float64
}

// SyntaxTreeProvider analyzes one language's source structurally.
//
// Description:
//
//	Implementations parse the content with tree-sitter and walk the
//	tree for structural risk markers. Providers must be safe for
//	concurrent use; each Analyze call creates its own parser.
type SyntaxTreeProvider interface {
	// Language returns the canonical lowercase language name.
	Language() string

	// Extensions returns the file extensions this provider handles,
	// with leading dots.
	Extensions() []string

	// Analyze parses content and returns structural insights. A nil
	// error with zero insights is a clean result; an error means the
	// parse itself failed.
	Analyze(ctx context.Context, content []byte) ([]Insight, error)
}

// Registry maps languages and extensions to providers.
//
// Thread Safety:
//
//	Registry is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	byLanguage  map[string]SyntaxTreeProvider
	byExtension map[string]SyntaxTreeProvider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]SyntaxTreeProvider),
		byExtension: make(map[string]SyntaxTreeProvider),
	}
}

// DefaultRegistry returns a registry with all built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// Registration of built-ins cannot collide.
	_ = r.Register(NewPythonProvider())
	_ = r.Register(NewGoProvider())
	return r
}

// Register adds a provider, rejecting duplicate languages or
// extensions.
func (r *Registry) Register(p SyntaxTreeProvider) error {
	if p == nil {
		return fmt.Errorf("register: nil provider")
	}
	lang := strings.ToLower(p.Language())
	if lang == "" {
		return fmt.Errorf("register: provider has empty language")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLanguage[lang]; exists {
		return fmt.Errorf("register: language %q already registered", lang)
	}
	for _, ext := range p.Extensions() {
		if _, exists := r.byExtension[ext]; exists {
			return fmt.Errorf("register: extension %q already registered", ext)
		}
	}

	r.byLanguage[lang] = p
	for _, ext := range p.Extensions() {
		r.byExtension[ext] = p
	}
	return nil
}

// ForLanguage returns the provider for a language, or nil.
func (r *Registry) ForLanguage(language string) SyntaxTreeProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byLanguage[strings.ToLower(language)]
}

// ForExtension returns the provider for a file extension, or nil.
func (r *Registry) ForExtension(ext string) SyntaxTreeProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExtension[strings.ToLower(ext)]
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
