package crypto

import (
	"strings"
	"testing"
)

func TestNewNanoID(t *testing.T) {
	tests := []struct {
		name     string
		alphabet []string
		wantErr  error
	}{
		{name: "default", alphabet: nil},
		{name: "empty string uses default", alphabet: []string{""}},
		{name: "digits", alphabet: []string{DigitAlphabet}},
		{name: "too many", alphabet: []string{"abcdefgh", "ijklmnop"}, wantErr: ErrTooManyInputAlphabet},
		{name: "too short", alphabet: []string{"abc"}, wantErr: ErrAlphabetTooShort},
		{name: "too long", alphabet: []string{strings.Repeat("a", 256)}, wantErr: ErrAlphabetTooLong},
		{name: "not ascii", alphabet: []string{"abcdefgé"}, wantErr: ErrAlphabetNotASCII},
		{name: "invalid utf8", alphabet: []string{"abcdefg\xff"}, wantErr: ErrAlphabetInvalidUTF8},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			_, err := NewNanoID(test.alphabet...)

			// Assert
			if err != test.wantErr {
				t.Errorf("NewNanoID() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestNanoID_Mask(t *testing.T) {
	tests := []struct {
		alphabetLen int
		wantMask    int
	}{
		{alphabetLen: 8, wantMask: 7},
		{alphabetLen: 10, wantMask: 15},
		{alphabetLen: 16, wantMask: 15},
		{alphabetLen: 17, wantMask: 31},
		{alphabetLen: 64, wantMask: 63},
		{alphabetLen: 65, wantMask: 127},
		{alphabetLen: 255, wantMask: 255},
	}

	for _, test := range tests {
		if got := getMask(test.alphabetLen); got != test.wantMask {
			t.Errorf("getMask(%d) = %d, want %d", test.alphabetLen, got, test.wantMask)
		}
	}
}

func TestNanoID_GenerateUsesAlphabet(t *testing.T) {
	// Arrange
	n, err := NewNanoID(DigitAlphabet)
	if err != nil {
		t.Fatal(err)
	}

	// Act
	counts := make(map[rune]int)
	for i := 0; i < 2000; i++ {
		id, err := n.Generate(6)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(id) != 6 {
			t.Fatalf("len(%q) = %d, want 6", id, len(id))
		}
		for _, r := range id {
			counts[r]++
		}
	}

	// Assert
	for r := range counts {
		if !strings.ContainsRune(DigitAlphabet, r) {
			t.Errorf("unexpected character %q", r)
		}
	}
	if len(counts) != len(DigitAlphabet) {
		t.Errorf("saw %d distinct digits in 12000 draws, want %d", len(counts), len(DigitAlphabet))
	}
}

func TestNanoID_DefaultSize(t *testing.T) {
	n, _ := NewNanoID()
	id, err := n.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if len(id) != defaultSize {
		t.Errorf("len = %d, want %d", len(id), defaultSize)
	}
}
