package core

import (
	"fmt"
	"strings"
)

const (
	CountryCode       = "256"
	subscriberDigits  = 9
	phoneSeparatorSet = " -().\t"
)

// Carrier identifies the mobile network that owns a number prefix.
type Carrier string

const (
	CarrierMTN    Carrier = "MTN"
	CarrierAirtel Carrier = "Airtel"
)

var carrierPrefixes = map[string]Carrier{
	"70": CarrierAirtel,
	"74": CarrierAirtel,
	"75": CarrierAirtel,
	"76": CarrierMTN,
	"77": CarrierMTN,
	"78": CarrierMTN,
}

// NormalizePhone canonicalizes a national mobile number to +256XXXXXXXXX.
//
// Accepted forms: 0781234567, +256781234567, 256781234567 and 781234567, with
// any spaces, dashes, dots or parentheses. All forms of the same number yield
// the same result.
func NormalizePhone(input string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if strings.ContainsRune(phoneSeparatorSet, r) {
			return -1
		}
		return r
	}, input)

	digits = strings.TrimPrefix(digits, "+")
	digits = strings.TrimPrefix(digits, CountryCode)
	digits = strings.TrimPrefix(digits, "0")

	if len(digits) != subscriberDigits {
		return "", fmt.Errorf("%w: expected %d digits after country code, got %d", ErrInvalidPhoneFormat, subscriberDigits, len(digits))
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", fmt.Errorf("%w: contains non-digit characters", ErrInvalidPhoneFormat)
		}
	}
	if _, ok := carrierPrefixes[digits[:2]]; !ok {
		return "", fmt.Errorf("%w: must start with 070, 074, 075, 076, 077, or 078", ErrInvalidPhoneFormat)
	}

	return "+" + CountryCode + digits, nil
}

// IsValidPhone reports whether input normalizes successfully.
func IsValidPhone(input string) bool {
	_, err := NormalizePhone(input)
	return err == nil
}

// CarrierOf returns the carrier for a number in any accepted form.
func CarrierOf(input string) (Carrier, error) {
	canonical, err := NormalizePhone(input)
	if err != nil {
		return "", err
	}
	prefix := canonical[len("+"+CountryCode) : len("+"+CountryCode)+2]
	return carrierPrefixes[prefix], nil
}
