// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"strings"
	"unicode"

	"github.com/pdiddy/medsearch/pkg/types"
)

// keyKind orders the identity cascade: strong identifiers first, the fuzzy
// title+author composite last.
type keyKind int

const (
	kindDOI keyKind = iota
	kindPMID
	kindNCT
	kindFuzzy
)

// recordKey is one identity edge label for a record.
type recordKey struct {
	kind  keyKind
	value string
}

// keysOf returns every identity key a record carries, strongest first.
// Records sharing any one key describe the same work.
func keysOf(r *types.Record) []recordKey {
	var keys []recordKey
	if r.DOI != "" {
		keys = append(keys, recordKey{kindDOI, r.DOI})
	}
	if r.PMID != "" {
		keys = append(keys, recordKey{kindPMID, r.PMID})
	}
	if r.NCTID != "" {
		keys = append(keys, recordKey{kindNCT, r.NCTID})
	}
	if fk := FuzzyKey(r); fk != "" {
		keys = append(keys, recordKey{kindFuzzy, fk})
	}
	return keys
}

// FuzzyKey builds the fallback composite key: normalized title concatenated
// with the first author's normalized surname. Empty when the record has no
// authors — a bare title is too weak to merge on.
//
// The matcher is exact equality on this key. A looser similarity match with
// a tunable threshold would slot in here, but shipping one without
// calibration against labeled duplicates would be guesswork.
func FuzzyKey(r *types.Record) string {
	if len(r.Authors) == 0 {
		return ""
	}
	title := NormalizeTitle(r.Title)
	surname := Surname(r.Authors[0])
	if title == "" || surname == "" {
		return ""
	}
	return title + "|" + surname
}

// NormalizeTitle lowercases, strips punctuation, and collapses whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Surname extracts a normalized surname from one author string. Providers
// disagree on author shape: "Sung H" (surname first, initials after),
// "Hyuna Sung" (surname last), "Garcia, M." (surname before comma).
func Surname(author string) string {
	author = strings.ToLower(strings.TrimSpace(author))
	if author == "" {
		return ""
	}

	// "Garcia, M." — surname is everything before the comma.
	if i := strings.IndexByte(author, ','); i >= 0 {
		author = author[:i]
	}

	fields := strings.Fields(stripPunct(author))
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	}

	// "sung h" — trailing initials mean the surname leads; otherwise the
	// surname trails ("hyuna sung").
	last := fields[len(fields)-1]
	if len(last) <= 2 {
		return fields[0]
	}
	return last
}

func stripPunct(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
