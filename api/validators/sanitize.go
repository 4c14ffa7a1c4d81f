package validators

import "strings"

// SanitizeString trims surrounding whitespace and hard-caps the length.
// Applied to free-text inputs like announcement messages and buyer names.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// SanitizeCode normalizes user-entered codes (promo codes, license keys)
// to trimmed uppercase.
func SanitizeCode(input string, maxLen int) string {
	return strings.ToUpper(SanitizeString(input, maxLen))
}
