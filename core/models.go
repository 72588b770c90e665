package core

import (
	"strings"
	"time"
)

// Account represents one registered member.
//
// The phone number is the canonical international form and is unique across
// all accounts. MemberID is assigned once at registration and never changes.
type Account struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	PinHash   string    `json:"-"` // Never expose in JSON
	MemberID  string    `json:"memberId"`
	NIN       string    `json:"nin,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName joins first and last name.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// SplitFullName splits a single name field into first name and the remainder.
func SplitFullName(fullName string) (firstName, lastName string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// Session represents an active login session
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	TokenHash string    `json:"-"` // Never expose in JSON (security!)
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionData combines account and session info
// The model returned to clients
type SessionData struct {
	Account *Account `json:"account"`
	Session *Session `json:"session"`
}

// RequestMeta carries client details recorded on new sessions.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
