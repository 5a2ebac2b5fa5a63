package graph

import (
	"strings"
	"unicode"
)

// minTermLength is the shortest plain word kept as an entity.
// Tokens containing a digit (claim codes such as "co-50") and all-caps acronyms
// of at least minAcronymLength letters ("AR", "PA") are kept regardless.
const (
	minTermLength    = 3
	minAcronymLength = 2
)

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "also": {}, "and": {}, "any": {}, "are": {},
	"asked": {}, "assistant": {}, "been": {}, "but": {}, "can": {}, "could": {}, "did": {},
	"does": {}, "for": {}, "from": {}, "get": {}, "had": {}, "has": {}, "have": {}, "how": {},
	"into": {}, "its": {}, "just": {}, "more": {}, "most": {}, "not": {}, "our": {}, "out": {},
	"responded": {}, "should": {}, "some": {}, "than": {}, "that": {}, "the": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "was": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {}, "user": {},
	"am": {}, "an": {}, "as": {}, "at": {}, "be": {}, "by": {}, "do": {}, "he": {}, "if": {},
	"in": {}, "is": {}, "it": {}, "me": {}, "my": {}, "no": {}, "of": {}, "ok": {}, "on": {},
	"or": {}, "so": {}, "to": {}, "up": {}, "us": {}, "we": {},
}

// ExtractTerms returns the distinct lowercased entity terms of text in first-seen order.
// Words are split on anything other than letters, digits and hyphens.
// Case is inspected before lowercasing so short acronyms survive.
func ExtractTerms(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		raw := strings.Trim(field, "-")
		if !keepTerm(raw) {
			continue
		}
		term := strings.ToLower(raw)
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

func keepTerm(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.ContainsFunc(raw, unicode.IsDigit) {
		return len(raw) >= 2
	}
	term := strings.ToLower(raw)
	if _, stop := stopWords[term]; stop {
		return false
	}
	n := len([]rune(raw))
	if isAcronym(raw) {
		return n >= minAcronymLength
	}
	return n >= minTermLength
}

// isAcronym reports whether every letter of the word is upper case
func isAcronym(word string) bool {
	hasLetter := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			hasLetter = true
		}
	}
	return hasLetter
}

// ExtractFacts splits an episode body into sentences and tags each with its terms.
// Sentences end at '.', '?' or '!' followed by whitespace, or at a line break.
func ExtractFacts(body string) []ExtractedFact {
	var facts []ExtractedFact
	for _, line := range strings.Split(body, "\n") {
		for _, sentence := range splitSentences(line) {
			facts = append(facts, ExtractedFact{
				Content:  sentence,
				Entities: ExtractTerms(sentence),
			})
		}
	}
	return facts
}

func splitSentences(line string) []string {
	var out []string
	runes := []rune(line)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}
