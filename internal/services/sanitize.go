package services

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// cleanText strips markup from user text and trims it. Entities escaped by
// the policy are decoded again so plain text round-trips unchanged.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// requireText cleans s and enforces a non-empty value of at most maxRunes
func requireText(field, s string, maxRunes int) (string, error) {
	cleaned := cleanText(s)
	if cleaned == "" {
		return "", invalid(field, "is required")
	}
	if maxRunes > 0 && utf8.RuneCountInString(cleaned) > maxRunes {
		return "", invalid(field, "must be %d characters or less", maxRunes)
	}
	return cleaned, nil
}
