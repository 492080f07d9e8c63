package mpesa

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone converts user input into the 2547XXXXXXXX form the gateway
// requires. Accepts 07XXXXXXXX, 7XXXXXXXX, +2547XXXXXXXX and the canonical
// form itself.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
	cleaned = strings.TrimPrefix(cleaned, "+")

	switch {
	case strings.HasPrefix(cleaned, "254"):
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 10:
		cleaned = "254" + cleaned[1:]
	case strings.HasPrefix(cleaned, "7") || strings.HasPrefix(cleaned, "1"):
		cleaned = "254" + cleaned
	default:
		return "", ErrInvalidPhone
	}

	if len(cleaned) != 12 {
		return "", ErrInvalidPhone
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return cleaned, nil
}
