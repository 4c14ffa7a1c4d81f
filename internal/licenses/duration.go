package licenses

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ExpiryFromLabel derives a license expiration from a variant label such as
// "7 Days", "30 Days", or "Lifetime". The first integer in the label is read
// as a day count; labels with no integer ("Lifetime", "One-time") yield no
// expiration.
func ExpiryFromLabel(label string, issuedAt time.Time) *time.Time {
	days, ok := firstInt(label)
	if !ok {
		return nil
	}
	expires := issuedAt.Add(time.Duration(days) * 24 * time.Hour)
	return &expires
}

func firstInt(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			n, err := strconv.Atoi(s[start:i])
			return n, err == nil
		}
	}
	if start != -1 {
		n, err := strconv.Atoi(strings.TrimSpace(s[start:]))
		return n, err == nil
	}
	return 0, false
}
