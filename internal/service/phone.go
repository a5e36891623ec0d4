package service

import "strings"

// FormatPhoneE164 normalizes a US phone number to E.164 for the Chek API.
// Returns "" when the number cannot be normalized.
func FormatPhoneE164(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d
	case len(d) == 10:
		return "+1" + d
	default:
		return ""
	}
}
