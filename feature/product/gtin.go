package product

import (
	"errors"
	"fmt"

	"sapataria/core/utils"
)

// MinGTINDigits is the shortest digit string accepted as a GTIN in bulk input.
const MinGTINDigits = 8

// ErrMissingGTIN reports a blank GTIN field.
var ErrMissingGTIN = errors.New("gtin is missing")

// NormalizeGTIN keeps only the digits of raw. It returns ErrMissingGTIN when raw
// is blank and an error when fewer than MinGTINDigits digits remain.
func NormalizeGTIN(raw string) (string, error) {
	cleaned := utils.CleanString(raw)
	if cleaned == "" {
		return "", ErrMissingGTIN
	}
	digits := utils.DigitsOnly(cleaned)
	if len(digits) < MinGTINDigits {
		return "", fmt.Errorf("gtin %q has %d digits, need at least %d", cleaned, len(digits), MinGTINDigits)
	}
	return digits, nil
}
