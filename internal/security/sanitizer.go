package security

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy    = bluemonday.StrictPolicy()
	usernameRegex = regexp.MustCompile(`^[a-z0-9_.]{3,32}$`)
)

const maxDisplayNameRunes = 100

// SanitizeString trims whitespace, drops null bytes and caps the length
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeDisplayName strips markup from a free-form profile name and cuts it
// to a rune limit. Entities escaped by the policy are decoded again since
// names are served as JSON, not HTML.
func SanitizeDisplayName(input string) string {
	name := SanitizeString(html.UnescapeString(SanitizeHTML(input)))
	if utf8.RuneCountInString(name) > maxDisplayNameRunes {
		name = string([]rune(name)[:maxDisplayNameRunes])
	}
	return strings.TrimSpace(name)
}

// NormalizeUsername lower-cases a handle and strips a leading @.
func NormalizeUsername(input string) string {
	return strings.ToLower(strings.TrimPrefix(SanitizeString(input), "@"))
}

// ValidateUsername checks a normalized handle
func ValidateUsername(username string) bool {
	return usernameRegex.MatchString(username)
}
