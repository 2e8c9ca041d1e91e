package utils

import "strings"

// SubMaskNumber hides the middle digits of a phone number, keeping up to the
// first 3 and the last 4 digits: +77011234567 -> +770****4567.
// Numbers too short to keep both ends are masked entirely except the tail.
func SubMaskNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}

	prefix := ""
	digits := number
	if strings.HasPrefix(digits, "+") {
		prefix = "+"
		digits = digits[1:]
	}

	n := len(digits)
	switch {
	case n <= 4:
		return prefix + strings.Repeat("*", n)
	case n <= 7:
		return prefix + strings.Repeat("*", n-4) + digits[n-4:]
	}

	head := 3
	return prefix + digits[:head] + strings.Repeat("*", n-head-4) + digits[n-4:]
}
