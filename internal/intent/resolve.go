package intent

import (
	"strings"
	"unicode/utf8"

	"github.com/nadzzz/asistan/internal/apps"
)

// minTokenLen is the shortest token allowed to take part in matching.
const minTokenLen = 3

// Resolve maps a free-form name phrase to a registered app. Matching runs in
// three passes: name or id containment, keyword containment, then a
// token-level fallback. Containment is checked in both directions.
func (e *Extractor) Resolve(phrase string) (apps.Descriptor, bool) {
	p := normalizePhrase(phrase)
	tokens := longTokens(p)
	if len(tokens) == 0 {
		return apps.Descriptor{}, false
	}
	all := e.registry.All()

	if app, ok := longestMatch(p, all, func(a apps.Descriptor) []string {
		return []string{strings.ToLower(a.Name), a.ID}
	}); ok {
		return app, true
	}
	if app, ok := longestMatch(p, all, func(a apps.Descriptor) []string {
		return a.Keywords
	}); ok {
		return app, true
	}

	for _, app := range all {
		candidates := longTokens(strings.ToLower(app.Name))
		for _, kw := range app.Keywords {
			candidates = append(candidates, longTokens(strings.ToLower(kw))...)
		}
		for _, tok := range tokens {
			for _, c := range candidates {
				if strings.Contains(c, tok) || strings.Contains(tok, c) {
					return app, true
				}
			}
		}
	}
	return apps.Descriptor{}, false
}

// longestMatch returns the app whose term matched the phrase with the most
// runes, so "google maps" resolves to Google Maps rather than Google. Ties
// keep registry order.
func longestMatch(p string, all []apps.Descriptor, terms func(apps.Descriptor) []string) (apps.Descriptor, bool) {
	var (
		best    apps.Descriptor
		bestLen int
	)
	for _, app := range all {
		for _, term := range terms(app) {
			term = strings.ToLower(term)
			if n := utf8.RuneCountInString(term); containsEither(p, term) && n > bestLen {
				best, bestLen = app, n
			}
		}
	}
	return best, bestLen > 0
}

// containsEither reports whether a contains b or b contains a. Terms shorter
// than minTokenLen never match.
func containsEither(a, b string) bool {
	if utf8.RuneCountInString(a) < minTokenLen || utf8.RuneCountInString(b) < minTokenLen {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// normalizePhrase lowercases, drops Turkish case suffixes written after an
// apostrophe ("youtube'u" -> "youtube") and collapses whitespace.
func normalizePhrase(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for i, f := range fields {
		if j := strings.IndexAny(f, "'’"); j >= 0 {
			fields[i] = f[:j]
		}
	}
	return strings.Join(strings.Fields(strings.Join(fields, " ")), " ")
}

func longTokens(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		if utf8.RuneCountInString(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}
