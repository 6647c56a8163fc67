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
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// pythonDangerousCalls maps bare call names to risk weights.
var pythonDangerousCalls = map[string]struct {
	risk       float64
	confidence float64
}{
	"eval":       {9.0, 0.95},
	"exec":       {9.0, 0.95},
	"compile":    {6.0, 0.85},
	"__import__": {6.5, 0.9},
	"getattr":    {4.5, 0.65},
	"setattr":    {4.0, 0.6},
}

// pythonDangerousAttrCalls maps dotted call names to risk weights.
var pythonDangerousAttrCalls = map[string]struct {
	risk       float64
	confidence float64
}{
	"os.system":               {8.5, 0.95},
	"os.popen":                {8.0, 0.9},
	"subprocess.call":         {7.5, 0.9},
	"subprocess.run":          {7.0, 0.85},
	"subprocess.Popen":        {7.5, 0.9},
	"subprocess.check_output": {7.0, 0.85},
	"pickle.loads":            {8.0, 0.9},
	"pickle.load":             {7.5, 0.85},
	"marshal.loads":           {7.5, 0.85},
	"yaml.load":               {6.5, 0.8},
	"ctypes.CDLL":             {7.0, 0.85},
}

// pythonRiskyImports maps imported modules to risk weights. Imports
// alone are weak evidence, so confidence sits near the promotion
// threshold.
var pythonRiskyImports = map[string]struct {
	risk       float64
	confidence float64
}{
	"pickle":     {5.5, 0.75},
	"marshal":    {5.0, 0.72},
	"ctypes":     {6.0, 0.75},
	"subprocess": {4.5, 0.65},
	"socket":     {3.5, 0.6},
	"telnetlib":  {5.0, 0.72},
}

// PythonProvider analyzes Python snippets with tree-sitter.
//
// Description:
//
//	The provider walks the parse tree for dangerous calls, aliased
//	dangerous calls (a = eval; a(x)), risky imports, and string
//	concatenation feeding a dangerous call. Each Analyze call builds
//	its own tree-sitter parser.
//
// Thread Safety:
//
//	PythonProvider is safe for concurrent use.
type PythonProvider struct{}

// NewPythonProvider creates a provider.
func NewPythonProvider() *PythonProvider {
	return &PythonProvider{}
}

// Language returns "python".
func (p *PythonProvider) Language() string { return "python" }

// Extensions returns the Python file extensions.
func (p *PythonProvider) Extensions() []string { return []string{".py", ".pyi"} }

// Analyze parses the content and collects structural insights.
func (p *PythonProvider) Analyze(ctx context.Context, content []byte) ([]Insight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("python analyze: content is not valid UTF-8")
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("python analyze: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("python analyze: nil root node")
	}

	w := &pythonWalker{
		content:  content,
		aliases:  make(map[string]string),
		insights: make([]Insight, 0),
	}
	w.walk(root)
	return w.insights, nil
}

// pythonWalker carries per-call traversal state.
type pythonWalker struct {
	content  []byte
	aliases  map[string]string
	insights []Insight
}

func (w *pythonWalker) walk(node *sitter.Node) {
	switch node.Type() {
	case "call":
		w.visitCall(node)
	case "assignment":
		w.visitAssignment(node)
	case "import_statement", "import_from_statement":
		w.visitImport(node)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i))
	}
}

func (w *pythonWalker) text(node *sitter.Node) string {
	return string(w.content[node.StartByte():node.EndByte()])
}

func (w *pythonWalker) line(node *sitter.Node) int {
	return int(node.StartPoint().Row + 1)
}

// visitCall records dangerous direct calls, aliased calls, and string
// building inside dangerous call arguments.
func (w *pythonWalker) visitCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	dangerous := false
	switch fn.Type() {
	case "identifier":
		name := w.text(fn)
		if entry, ok := pythonDangerousCalls[name]; ok {
			dangerous = true
			w.insights = append(w.insights, Insight{
				Kind:       "dangerous_call",
				Detail:     fmt.Sprintf("call to %s", name),
				Line:       w.line(node),
				Risk:       entry.risk,
				Confidence: entry.confidence,
			})
		} else if target, ok := w.aliases[name]; ok {
			if entry, ok := pythonDangerousCalls[target]; ok {
				dangerous = true
				w.insights = append(w.insights, Insight{
					Kind:       "indirect_dangerous_call",
					Detail:     fmt.Sprintf("call to %s via alias %s", target, name),
					Line:       w.line(node),
					Risk:       entry.risk,
					Confidence: entry.confidence * 0.9,
				})
			}
		}
	case "attribute":
		name := w.text(fn)
		if entry, ok := pythonDangerousAttrCalls[name]; ok {
			dangerous = true
			w.insights = append(w.insights, Insight{
				Kind:       "dangerous_call",
				Detail:     fmt.Sprintf("call to %s", name),
				Line:       w.line(node),
				Risk:       entry.risk,
				Confidence: entry.confidence,
			})
		}
	}

	if dangerous {
		if args := node.ChildByFieldName("arguments"); args != nil {
			w.checkStringBuild(args)
		}
	}
}

// checkStringBuild flags variable-and-literal concatenation used as a
// dangerous call argument.
func (w *pythonWalker) checkStringBuild(args *sitter.Node) {
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() != "binary_operator" {
			continue
		}
		hasString := false
		hasIdent := false
		for j := 0; j < int(child.ChildCount()); j++ {
			switch child.Child(j).Type() {
			case "string":
				hasString = true
			case "identifier", "attribute", "call", "subscript":
				hasIdent = true
			}
		}
		if hasString && hasIdent {
			w.insights = append(w.insights, Insight{
				Kind:       "tainted_string_build",
				Detail:     "dynamic string concatenation in dangerous call argument",
				Line:       w.line(child),
				Risk:       7.0,
				Confidence: 0.85,
			})
		}
	}
}

// visitAssignment tracks aliases of dangerous functions.
func (w *pythonWalker) visitAssignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}
	if left.Type() != "identifier" || right.Type() != "identifier" {
		return
	}
	target := w.text(right)
	if _, ok := pythonDangerousCalls[target]; ok {
		w.aliases[w.text(left)] = target
		w.insights = append(w.insights, Insight{
			Kind:       "dangerous_alias",
			Detail:     fmt.Sprintf("%s aliased to %s", target, w.text(left)),
			Line:       w.line(node),
			Risk:       5.0,
			Confidence: 0.75,
		})
	}
}

// visitImport records imports of risky modules.
func (w *pythonWalker) visitImport(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "dotted_name" {
			continue
		}
		module := w.text(child)
		if entry, ok := pythonRiskyImports[module]; ok {
			w.insights = append(w.insights, Insight{
				Kind:       "risky_import",
				Detail:     fmt.Sprintf("import of %s", module),
				Line:       w.line(node),
				Risk:       entry.risk,
				Confidence: entry.confidence,
			})
		}
		// Only the module path matters; imported names follow the
		// "import" keyword and are handled by call analysis.
		break
	}
}

var _ SyntaxTreeProvider = (*PythonProvider)(nil)
