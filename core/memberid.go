package core

import (
	"fmt"
	"regexp"

	"github.com/lborres/abaccess/pkg/crypto"
)

const (
	MemberIDPrefix = "A-"
	memberIDDigits = 6
)

var memberIDPattern = regexp.MustCompile(`^A-\d{6}$`)

// MemberIDGenerator produces human-facing member numbers (A-012345).
// It makes no uniqueness guarantee; storage enforces that.
type MemberIDGenerator interface {
	Generate() (string, error)
}

// RandomMemberID draws six uniform decimal digits per member number.
type RandomMemberID struct {
	digits *crypto.NanoIDGenerator
}

var _ MemberIDGenerator = (*RandomMemberID)(nil)

func NewRandomMemberID() *RandomMemberID {
	// DigitAlphabet is a valid constant alphabet
	digits, _ := crypto.NewNanoID(crypto.DigitAlphabet)
	return &RandomMemberID{digits: digits}
}

func (g *RandomMemberID) Generate() (string, error) {
	n, err := g.digits.Generate(memberIDDigits)
	if err != nil {
		return "", fmt.Errorf("failed to generate member id: %w", err)
	}
	return MemberIDPrefix + n, nil
}

// IsValidMemberID checks the A-NNNNNN shape only.
func IsValidMemberID(id string) bool {
	return memberIDPattern.MatchString(id)
}
