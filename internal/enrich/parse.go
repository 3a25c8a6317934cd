// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package enrich

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Fallback values used when the oracle response cannot be understood.
const (
	FallbackScore       = 0.0
	FallbackExplanation = "No explanation available."
)

// assessment is the JSON object expected somewhere inside the oracle reply.
type assessment struct {
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
}

// ParseAssessment extracts a score and explanation from a raw oracle reply.
// Oracles wrap their verdict in prose, so the first balanced {...} substring
// that decodes into an object with a numeric score and a non-empty
// explanation is used. The score is clamped into [0, 100].
//
// ok is false when no candidate object qualifies; a reply missing either
// field is as unusable as no reply, so the caller gets the full fallback
// pair, never a half-parsed one.
func ParseAssessment(raw string) (score float64, explanation string, ok bool) {
	for _, candidate := range balancedObjects(raw) {
		var a assessment
		if err := json.Unmarshal([]byte(candidate), &a); err != nil {
			continue
		}
		if a.Score == nil {
			continue
		}
		explanation := strings.TrimSpace(a.Explanation)
		if explanation == "" {
			continue
		}
		score := *a.Score
		if score < 0 {
			score = 0
		} else if score > 100 {
			score = 100
		}
		return score, explanation, true
	}
	return FallbackScore, FallbackExplanation, false
}

// balancedObjects yields every top-level balanced {...} substring of s, in
// order of appearance. Braces inside JSON strings are honored so prose like
// `{"a": "b}"}` is not split early.
func balancedObjects(s string) []string {
	var out []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					out = append(out, s[start:i+1])
				}
			}
		}
	}
	return out
}
