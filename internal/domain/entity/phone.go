package entity

import (
	"fmt"
	"strings"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
)

// CountryCode is the trunk replacement applied during phone normalization
const CountryCode = "254"

// NormalizePhone converts a payer phone number to the single canonical
// international form the gateway accepts:
//
//	0712345678   -> 254712345678
//	+254712345678 -> 254712345678
//	254712345678  -> unchanged
//	712345678     -> 254712345678
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.TrimPrefix(phone, "+")

	if phone == "" {
		return "", fmt.Errorf("%w: empty value", errs.ErrInvalidPhone)
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w: %q contains non-digit characters", errs.ErrInvalidPhone, raw)
		}
	}

	switch {
	case strings.HasPrefix(phone, "0") && len(phone) == 10:
		phone = CountryCode + phone[1:]
	case strings.HasPrefix(phone, "7") && len(phone) == 9:
		phone = CountryCode + phone
	case strings.HasPrefix(phone, CountryCode) && len(phone) == 12:
		// already canonical
	default:
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidPhone, raw)
	}

	return phone, nil
}
