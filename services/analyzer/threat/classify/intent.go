// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"strings"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// intentLexicon maps each category to weighted keywords. Weights are
// small integers; structural signals below add larger boosts.
var intentLexicon = map[threat.IntentCategory][]weightedTerm{
	threat.IntentConfiguration: {
		{"config", 2}, {"settings", 2}, {"setup", 1}, {"initialize", 1},
		{"environment", 1}, {"yaml", 1}, {"toml", 1}, {".env", 2},
	},
	threat.IntentLogging: {
		{"logger", 2}, {"logging", 2}, {"log.", 2}, {"debug", 1},
		{"warn", 1}, {"audit", 1}, {"trace", 1},
	},
	threat.IntentDataProcessing: {
		{"parse", 2}, {"transform", 2}, {"serialize", 1}, {"dataframe", 2},
		{"filter", 1}, {"aggregate", 1}, {"json", 1}, {"csv", 1},
	},
	threat.IntentTesting: {
		{"test", 2}, {"assert", 2}, {"mock", 2}, {"fixture", 2},
		{"unittest", 3}, {"pytest", 3}, {"expect(", 2},
	},
	threat.IntentDocumentation: {
		{"example", 2}, {"tutorial", 3}, {"sample", 1}, {"demo", 2},
		{"readme", 2}, {"usage:", 2},
	},
	threat.IntentValidation: {
		{"validate", 3}, {"sanitize", 3}, {"escape", 2}, {"whitelist", 2},
		{"allowlist", 2}, {"check", 1}, {"verify", 1},
	},
	threat.IntentSystemOps: {
		{"subprocess", 2}, {"os.system", 3}, {"shell", 2}, {"daemon", 2},
		{"systemctl", 3}, {"cron", 2}, {"deploy", 1},
	},
	threat.IntentUserInterface: {
		{"render", 2}, {"template", 1}, {"button", 2}, {"widget", 2},
		{"onclick", 2}, {"display", 1}, {"html", 1},
	},
	threat.IntentBusinessLogic: {
		{"order", 1}, {"invoice", 2}, {"payment", 2}, {"customer", 2},
		{"account", 1}, {"workflow", 1},
	},
}

type weightedTerm struct {
	term   string
	weight int
}

// intentPriority breaks score ties deterministically. Earlier entries
// win. Testing and documentation outrank operational categories so
// that scaffolding code is consistently discounted.
var intentPriority = []threat.IntentCategory{
	threat.IntentTesting,
	threat.IntentDocumentation,
	threat.IntentValidation,
	threat.IntentConfiguration,
	threat.IntentLogging,
	threat.IntentDataProcessing,
	threat.IntentSystemOps,
	threat.IntentUserInterface,
	threat.IntentBusinessLogic,
}

// IntentClassifier infers the dominant purpose of a whole snippet.
//
// Description:
//
//	Scoring sums lexicon weights over the lowercased snippet, then adds
//	structural boosts for test function definitions and block comments.
//	The highest score wins; ties fall back to a fixed priority order;
//	an all-zero scoreboard yields IntentUnknown. The classifier never
//	fails and holds no state.
//
// Thread Safety:
//
//	IntentClassifier is stateless and safe for concurrent use.
type IntentClassifier struct{}

// NewIntentClassifier returns a classifier.
func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{}
}

// Classify returns the dominant intent of the snippet.
func (c *IntentClassifier) Classify(code string) threat.IntentCategory {
	lower := strings.ToLower(code)
	scores := make(map[threat.IntentCategory]int, len(intentLexicon))

	for cat, terms := range intentLexicon {
		total := 0
		for _, wt := range terms {
			total += wt.weight * strings.Count(lower, wt.term)
		}
		scores[cat] = total
	}

	// Structural signals outweigh single keyword hits.
	if strings.Contains(lower, "def test_") || strings.Contains(code, "func Test") ||
		strings.Contains(lower, "it(\"") || strings.Contains(lower, "describe(\"") {
		scores[threat.IntentTesting] += 4
	}
	if strings.Contains(code, `"""`) || strings.Contains(code, "'''") ||
		strings.Contains(code, "/**") {
		scores[threat.IntentDocumentation] += 3
	}
	if strings.Contains(lower, "if __name__") {
		scores[threat.IntentSystemOps]++
	}

	best := threat.IntentUnknown
	bestScore := 0
	for _, cat := range intentPriority {
		if scores[cat] > bestScore {
			best = cat
			bestScore = scores[cat]
		}
	}
	return best
}
