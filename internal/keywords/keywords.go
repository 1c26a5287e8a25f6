// Package keywords derives the search tags stored with every item.
package keywords

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// MaxKeywords caps how many tags an item carries.
const MaxKeywords = 12

// minLength is the shortest token kept as a keyword.
const minLength = 3

var stopWords = map[string]bool{
	"and": true, "are": true, "but": true, "for": true, "from": true, "had": true,
	"has": true, "have": true, "her": true, "his": true, "its": true, "left": true,
	"lost": true, "found": true, "near": true, "not": true, "one": true, "our": true,
	"that": true, "the": true, "their": true, "them": true, "there": true, "this": true,
	"was": true, "were": true, "with": true, "you": true, "your": true, "item": true,
	"other": true, "some": true, "into": true, "onto": true, "very": true,
}

// Derive returns keywords for an item. Tokens are case-folded, stop words and
// short tokens are dropped, duplicates are removed, and first-appearance order
// across title, category and description is kept.
func Derive(title, category, description string) []string {
	folder := cases.Fold()
	seen := make(map[string]bool)
	out := []string{}

	for _, text := range []string{title, category, description} {
		tokens := strings.FieldsFunc(folder.String(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		for _, tok := range tokens {
			if len([]rune(tok)) < minLength || stopWords[tok] || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
			if len(out) == MaxKeywords {
				return out
			}
		}
	}
	return out
}
