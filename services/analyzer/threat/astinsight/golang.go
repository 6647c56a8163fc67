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
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// goDangerousCalls maps selector call names to risk weights.
var goDangerousCalls = map[string]struct {
	risk       float64
	confidence float64
}{
	"exec.Command":        {8.5, 0.95},
	"exec.CommandContext": {8.0, 0.9},
	"syscall.Exec":        {8.5, 0.9},
	"os.StartProcess":     {7.5, 0.85},
	"plugin.Open":         {7.0, 0.85},
	"unsafe.Pointer":      {6.0, 0.8},
	"reflect.ValueOf":     {3.5, 0.55},
}

// goRiskyImports maps import paths to risk weights.
var goRiskyImports = map[string]struct {
	risk       float64
	confidence float64
}{
	"os/exec": {5.5, 0.75},
	"unsafe":  {5.0, 0.72},
	"plugin":  {5.5, 0.75},
	"syscall": {4.5, 0.65},
}

// GoProvider analyzes Go snippets with tree-sitter.
//
// Thread Safety:
//
//	GoProvider is safe for concurrent use.
type GoProvider struct{}

// NewGoProvider creates a provider.
func NewGoProvider() *GoProvider {
	return &GoProvider{}
}

// Language returns "go".
func (p *GoProvider) Language() string { return "go" }

// Extensions returns the Go file extension.
func (p *GoProvider) Extensions() []string { return []string{".go"} }

// Analyze parses the content and collects structural insights.
//
// Snippets are usually fragments, not whole files, so the content is
// wrapped in a synthetic package clause when one is missing; the
// tree-sitter grammar is error-tolerant either way.
func (p *GoProvider) Analyze(ctx context.Context, content []byte) ([]Insight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("go analyze: content is not valid UTF-8")
	}

	src := content
	offset := 0
	if !strings.Contains(string(content), "package ") {
		src = append([]byte("package snippet\n\nfunc _snippet() {\n"), content...)
		src = append(src, []byte("\n}\n")...)
		offset = 3
	}

	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("go analyze: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("go analyze: nil root node")
	}

	w := &goWalker{content: src, lineOffset: offset, insights: make([]Insight, 0)}
	w.walk(root)
	return w.insights, nil
}

type goWalker struct {
	content    []byte
	lineOffset int
	insights   []Insight
}

func (w *goWalker) walk(node *sitter.Node) {
	switch node.Type() {
	case "call_expression":
		w.visitCall(node)
	case "import_spec":
		w.visitImport(node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i))
	}
}

func (w *goWalker) text(node *sitter.Node) string {
	return string(w.content[node.StartByte():node.EndByte()])
}

func (w *goWalker) line(node *sitter.Node) int {
	line := int(node.StartPoint().Row+1) - w.lineOffset
	if line < 1 {
		line = 1
	}
	return line
}

func (w *goWalker) visitCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Type() != "selector_expression" {
		return
	}
	name := w.text(fn)
	entry, ok := goDangerousCalls[name]
	if !ok {
		return
	}
	w.insights = append(w.insights, Insight{
		Kind:       "dangerous_call",
		Detail:     fmt.Sprintf("call to %s", name),
		Line:       w.line(node),
		Risk:       entry.risk,
		Confidence: entry.confidence,
	})
}

func (w *goWalker) visitImport(node *sitter.Node) {
	// import_spec may carry an alias before the path literal.
	raw := w.text(node)
	if idx := strings.IndexByte(raw, '"'); idx >= 0 {
		raw = raw[idx:]
	}
	path := strings.Trim(raw, `"`)
	entry, ok := goRiskyImports[path]
	if !ok {
		return
	}
	w.insights = append(w.insights, Insight{
		Kind:       "risky_import",
		Detail:     fmt.Sprintf("import of %s", path),
		Line:       w.line(node),
		Risk:       entry.risk,
		Confidence: entry.confidence,
	})
}

var _ SyntaxTreeProvider = (*GoProvider)(nil)
