// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"strings"
	"unicode"
)

// synonymDict maps biomedical query terms to equivalent terms credited during
// relevance scoring. Deliberately small: it covers the high-traffic query
// vocabulary, not a thesaurus.
var synonymDict = map[string][]string{
	"cancer":    {"tumor", "neoplasm", "malignancy", "carcinoma", "oncology"},
	"diabetes":  {"diabetic", "hyperglycemia", "glucose", "insulin"},
	"covid":     {"coronavirus", "sars-cov-2", "pandemic", "covid-19"},
	"vaccine":   {"vaccination", "immunization", "immunize", "inoculation"},
	"treatment": {"therapy", "therapeutic", "intervention", "medication"},
	"disease":   {"illness", "disorder", "condition", "pathology"},
	"study":     {"research", "investigation", "analysis", "trial"},
	"patient":   {"subject", "participant", "individual", "case"},
	"clinical":  {"medical", "healthcare", "hospital", "therapeutic"},
	"drug":      {"medication", "pharmaceutical", "medicine", "compound"},
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "is": true,
	"are": true, "was": true, "were": true,
}

// extractKeywords lowercases the query, strips punctuation, and drops
// stopwords and tokens of two characters or fewer.
func extractKeywords(query string) map[string]bool {
	keywords := make(map[string]bool)
	for _, w := range tokenize(query) {
		if len(w) > 2 && !stopwords[w] {
			keywords[w] = true
		}
	}
	return keywords
}

// expandKeywords returns the keyword set plus every synonym of its members.
func expandKeywords(keywords map[string]bool) map[string]bool {
	expanded := make(map[string]bool, len(keywords))
	for k := range keywords {
		expanded[k] = true
		for _, syn := range synonymDict[k] {
			expanded[syn] = true
		}
	}
	return expanded
}

// tokenize lowercases s and splits it on punctuation and whitespace. Hyphens
// are kept so terms like "sars-cov-2" survive as single tokens.
func tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range tokenize(s) {
		set[w] = true
	}
	return set
}
