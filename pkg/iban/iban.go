package iban

import "strings"

// IsValid reports whether s passes the ISO 13616 IBAN mod-97 check.
// Spaces are ignored; comparison is case-insensitive.
func IsValid(s string) bool {
	s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	for _, r := range s[:2] {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	for _, r := range s[2:4] {
		if r < '0' || r > '9' {
			return false
		}
	}

	// Move the country code and check digits to the back, then take the
	// whole string mod 97 digit by digit to avoid big integers.
	rearranged := s[4:] + s[:4]
	rem := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			rem = (rem*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			n := int(r-'A') + 10
			rem = (rem*100 + n) % 97
		default:
			return false
		}
	}
	return rem == 1
}
