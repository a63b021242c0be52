// Package classify decides whether chat text is a phone number, an IPv4
// address, or neither.
package classify

import (
	"strings"

	"github.com/sells-group/lookup-bot/internal/model"
)

// minBarePhoneDigits is the shortest digit-only string accepted as a phone
// number without a leading '+'. Shorter numeric strings are ambiguous.
const minBarePhoneDigits = 10

// Text classifies trimmed text. Rules are evaluated in order and the first
// match wins. No other normalization is applied, so "+1 415 555" is
// unrecognized.
func Text(text string) model.Identifier {
	raw := strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(raw, "+") && isDigits(raw[1:]):
		return model.Phone(raw)
	case isDigits(raw) && len(raw) >= minBarePhoneDigits:
		return model.Phone(raw)
	case isDottedQuad(raw):
		return model.IPv4(raw)
	default:
		return model.Unrecognized(raw)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isDottedQuad matches d{1,3}.d{1,3}.d{1,3}.d{1,3} without range checks.
func isDottedQuad(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) > 3 || !isDigits(p) {
			return false
		}
	}
	return true
}
