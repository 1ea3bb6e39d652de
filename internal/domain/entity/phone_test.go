package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
)

func TestNormalizePhone(t *testing.T) {
	valid := map[string]string{
		"0712345678":     "254712345678",
		"+254712345678":  "254712345678",
		"254712345678":   "254712345678",
		"712345678":      "254712345678",
		" 0712 345 678 ": "254712345678",
	}
	for input, want := range valid {
		got, err := NormalizePhone(input)
		assert.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	invalid := []string{
		"",
		"07123",
		"07123456789012",
		"0712-345-678",
		"notaphone",
		"1712345678",
	}
	for _, input := range invalid {
		_, err := NormalizePhone(input)
		assert.ErrorIs(t, err, errs.ErrInvalidPhone, "input %q", input)
	}
}
