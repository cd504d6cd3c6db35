package utils

import (
	"unicode"
)

func IsWhiteSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// CollapseSpaces maps every run of whitespace symbols to a single space and
// trims whitespace from both ends, so phrases and documents normalize to the
// same shape regardless of line wrapping.
func CollapseSpaces(runes []rune) []rune {
	result := make([]rune, 0, len(runes))
	pendingSpace := false
	for _, ch := range runes {
		if IsWhiteSpace(ch) {
			pendingSpace = len(result) > 0
			continue
		}
		if pendingSpace {
			result = append(result, ' ')
			pendingSpace = false
		}
		result = append(result, ch)
	}
	return result
}

func FoldRunes(runes []rune) []rune {
	result := make([]rune, len(runes))
	for i, ch := range runes {
		result[i] = unicode.ToLower(ch)
	}
	return result
}
