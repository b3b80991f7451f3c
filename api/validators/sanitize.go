package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims input, replaces invalid UTF-8 and caps it at maxLen
// runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(strings.ToValidUTF8(input, ""))
	if maxLen <= 0 || utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}
	runes := 0
	for i := range trimmed {
		if runes == maxLen {
			return strings.TrimSpace(trimmed[:i])
		}
		runes++
	}
	return trimmed
}
