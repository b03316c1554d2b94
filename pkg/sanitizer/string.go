package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims leading/trailing whitespace and collapses internal
// whitespace runs to a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeName normalizes a person's display name.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeLabel normalizes a categorical label such as a class type
// ("Boxing", "muay thai") to a lowercase canonical form.
func NormalizeLabel(label string) string {
	return strings.ToLower(TrimAndNormalize(label))
}
