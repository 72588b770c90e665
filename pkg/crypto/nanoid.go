package crypto

import (
	"crypto/rand"
	"errors"
	"math"
	"unicode/utf8"
)

const (
	DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	DigitAlphabet   = "0123456789"

	defaultSize     = 22 // 132 bits with the default alphabet
	maxAlphabetSize = 255
	minAlphabetSize = 8
)

var (
	ErrTooManyInputAlphabet = errors.New("must only provide 1 set of alphabet")
	ErrAlphabetTooLong      = errors.New("alphabet must contain no more than 255 characters")
	ErrAlphabetTooShort     = errors.New("alphabet must contain at least 8 characters")
	ErrAlphabetInvalidUTF8  = errors.New("alphabet must contain valid UTF-8")
	ErrAlphabetNotASCII     = errors.New("alphabet must contain only ASCII characters")
)

// NanoIDGenerator draws IDs from an alphabet using masked rejection sampling,
// so every character is equally likely.
type NanoIDGenerator struct {
	alphabet string
	mask     int
}

// getMask returns the smallest 2^n-1 covering every alphabet index.
func getMask(alphabetLen int) int {
	for i := 1; i <= 8; i++ {
		mask := (2 << uint(i)) - 1
		if mask >= alphabetLen-1 {
			return mask
		}
	}
	return maxAlphabetSize
}

func NewNanoID(a ...string) (*NanoIDGenerator, error) {
	if len(a) > 1 {
		return nil, ErrTooManyInputAlphabet
	}

	alphabet := DefaultAlphabet
	if len(a) == 1 && a[0] != "" {
		alphabet = a[0]
	}

	if !utf8.ValidString(alphabet) {
		return nil, ErrAlphabetInvalidUTF8
	}
	// Generate indexes by byte
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] > 127 {
			return nil, ErrAlphabetNotASCII
		}
	}

	switch {
	case len(alphabet) > maxAlphabetSize:
		return nil, ErrAlphabetTooLong
	case len(alphabet) < minAlphabetSize:
		return nil, ErrAlphabetTooShort
	}

	return &NanoIDGenerator{
		alphabet: alphabet,
		mask:     getMask(len(alphabet)),
	}, nil
}

func (n *NanoIDGenerator) Generate(length ...int) (string, error) {
	size := defaultSize
	if len(length) > 0 && length[0] > 0 {
		size = length[0]
	}

	alphabetLen := len(n.alphabet)
	step := int(math.Ceil(1.6 * float64(n.mask*size) / float64(alphabetLen)))

	id := make([]byte, size)
	buf := make([]byte, step)

	for pos := 0; pos < size; {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		for i := 0; i < step && pos < size; i++ {
			idx := int(buf[i]) & n.mask
			if idx < alphabetLen {
				id[pos] = n.alphabet[idx]
				pos++
			}
		}
	}

	return string(id), nil
}
