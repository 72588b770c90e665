package core

import "context"

// Outcome enumerates every expected result of an authentication call.
// Infrastructure faults are not outcomes; they are returned as errors.
type Outcome uint8

const (
	OutcomeOK Outcome = iota
	OutcomeMissingFields
	OutcomeInvalidPhone
	OutcomeInvalidPin
	OutcomeWeakPin
	OutcomeInvalidNIN
	OutcomeAccountNotFound
	OutcomeWrongPin
	OutcomePhoneTaken
)

var outcomeNames = [...]string{
	OutcomeOK:              "ok",
	OutcomeMissingFields:   "missing_fields",
	OutcomeInvalidPhone:    "invalid_phone",
	OutcomeInvalidPin:      "invalid_pin",
	OutcomeWeakPin:         "weak_pin",
	OutcomeInvalidNIN:      "invalid_nin",
	OutcomeAccountNotFound: "account_not_found",
	OutcomeWrongPin:        "wrong_pin",
	OutcomePhoneTaken:      "phone_taken",
}

var outcomeMessages = [...]string{
	OutcomeOK:              "",
	OutcomeMissingFields:   "Please fill in all fields",
	OutcomeInvalidPhone:    "Invalid phone number. Must start with 070, 074, 075, 076, 077, or 078",
	OutcomeInvalidPin:      "Please enter a 4-digit PIN",
	OutcomeWeakPin:         "Please choose a stronger PIN",
	OutcomeInvalidNIN:      "Please enter a valid 14-character NIN",
	OutcomeAccountNotFound: "Account not found",
	OutcomeWrongPin:        "Wrong PIN",
	OutcomePhoneTaken:      "This phone number is already registered",
}

var outcomeErrors = [...]error{
	OutcomeOK:              nil,
	OutcomeMissingFields:   ErrMissingFields,
	OutcomeInvalidPhone:    ErrInvalidPhoneFormat,
	OutcomeInvalidPin:      ErrInvalidPinFormat,
	OutcomeWeakPin:         ErrWeakPin,
	OutcomeInvalidNIN:      ErrInvalidNIN,
	OutcomeAccountNotFound: ErrAccountNotFound,
	OutcomeWrongPin:        ErrInvalidCredentials,
	OutcomePhoneTaken:      ErrPhoneExists,
}

// UnavailableMessage is shown for every infrastructure fault. It never
// matches any credential or validation message.
const UnavailableMessage = "Can't connect right now. Please try again."

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Message is the user-facing text for the outcome.
func (o Outcome) Message() string {
	if int(o) < len(outcomeMessages) {
		return outcomeMessages[o]
	}
	return UnavailableMessage
}

// Err returns the sentinel error for the outcome, nil for OutcomeOK.
func (o Outcome) Err() error {
	if int(o) < len(outcomeErrors) {
		return outcomeErrors[o]
	}
	return ErrUnknownOutcome
}

// ParseOutcome maps a wire name back to an Outcome.
func ParseOutcome(name string) (Outcome, bool) {
	for i, n := range outcomeNames {
		if n == name {
			return Outcome(i), true
		}
	}
	return 0, false
}

// LoginInput contains the credentials for authentication
type LoginInput struct {
	Phone string `json:"phone"`
	Pin   string `json:"pin"`
}

// RegisterInput contains the data needed to register a new account
type RegisterInput struct {
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	NIN       string `json:"nin"`
	Pin       string `json:"pin"`
}

// AuthResult is the closed result of Login and Register. Account, Session
// and Token are set only when Outcome is OutcomeOK.
type AuthResult struct {
	Outcome Outcome  `json:"-"`
	Account *Account `json:"account,omitempty"`
	Session *Session `json:"session,omitempty"`
	Token   string   `json:"token,omitempty"` // The raw token (not the hash)
}

// OK reports whether the call succeeded.
func (r *AuthResult) OK() bool {
	return r != nil && r.Outcome == OutcomeOK
}

// Fail builds a failed result.
func Fail(o Outcome) *AuthResult {
	return &AuthResult{Outcome: o}
}

// Authenticator is the surface a client uses to drive authentication,
// whether in-process or over HTTP.
type Authenticator interface {
	AccountExists(ctx context.Context, phone string) (bool, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	SignOut(ctx context.Context, token string) error
}
