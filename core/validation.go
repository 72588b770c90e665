package core

import (
	"regexp"
	"strings"
)

const PinLength = 4

var (
	ninPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{12}$`)

	weakPins = map[string]struct{}{
		"0000": {}, "1111": {}, "2222": {}, "3333": {}, "4444": {},
		"5555": {}, "6666": {}, "7777": {}, "8888": {}, "9999": {},
		"1234": {}, "4321": {},
	}
)

// ValidatePinFormat checks that pin is exactly four ASCII digits.
func ValidatePinFormat(pin string) error {
	if len(pin) != PinLength {
		return ErrInvalidPinFormat
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrInvalidPinFormat
		}
	}
	return nil
}

// IsWeakPin reports whether pin is on the low-entropy list. Only registration
// enforces it; existing PINs keep working at login.
func IsWeakPin(pin string) bool {
	_, weak := weakPins[pin]
	return weak
}

// NormalizeNIN uppercases and trims a national ID number.
func NormalizeNIN(nin string) string {
	return strings.ToUpper(strings.TrimSpace(nin))
}

// IsValidNIN checks the 14 character NIN shape: two letters followed by
// twelve letters or digits.
func IsValidNIN(nin string) bool {
	return ninPattern.MatchString(NormalizeNIN(nin))
}
