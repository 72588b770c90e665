package core

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestOutcome_RoundTripNames(t *testing.T) {
	for o := OutcomeOK; o <= OutcomePhoneTaken; o++ {
		got, ok := ParseOutcome(o.String())
		if !ok || got != o {
			t.Errorf("ParseOutcome(%q) = %v, %v; want %v", o.String(), got, ok, o)
		}
	}
	if _, ok := ParseOutcome("bogus"); ok {
		t.Error("ParseOutcome(bogus) should fail")
	}
}

// Requirement: infrastructure faults never look like a credential failure to the user.
func TestOutcome_MessagesAreDistinct(t *testing.T) {
	seen := map[string]Outcome{}
	for o := OutcomeMissingFields; o <= OutcomePhoneTaken; o++ {
		msg := o.Message()
		if msg == "" {
			t.Errorf("%v has no message", o)
		}
		if msg == UnavailableMessage {
			t.Errorf("%v reuses the unavailable message", o)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("%v and %v share message %q", o, prev, msg)
		}
		seen[msg] = o
	}
	if OutcomeAccountNotFound.Message() != "Account not found" || OutcomeWrongPin.Message() != "Wrong PIN" {
		t.Error("login failure messages changed")
	}
}

func TestOutcome_Err(t *testing.T) {
	if OutcomeOK.Err() != nil {
		t.Error("OutcomeOK.Err() should be nil")
	}
	if !errors.Is(OutcomeWrongPin.Err(), ErrInvalidCredentials) {
		t.Error("OutcomeWrongPin should map to ErrInvalidCredentials")
	}
	if !errors.Is(OutcomePhoneTaken.Err(), ErrPhoneExists) {
		t.Error("OutcomePhoneTaken should map to ErrPhoneExists")
	}
}

func TestAuthResult_OK(t *testing.T) {
	var nilResult *AuthResult
	if nilResult.OK() {
		t.Error("nil result should not be OK")
	}
	if Fail(OutcomeWrongPin).OK() {
		t.Error("failed result should not be OK")
	}
	if !(&AuthResult{Outcome: OutcomeOK}).OK() {
		t.Error("OutcomeOK should be OK")
	}
}

func TestInfrastructureError(t *testing.T) {
	// Arrange
	cause := errors.New("dial tcp: connection refused")

	// Act
	err := Infra("get account", cause)
	wrapped := fmt.Errorf("login: %w", err)

	// Assert
	if !IsInfrastructure(wrapped) {
		t.Error("wrapped infra error should be detected")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("cause should be reachable")
	}
	if Infra("again", err) != err {
		t.Error("Infra should not double wrap")
	}
	if Infra("nil", nil) != nil {
		t.Error("Infra(nil) should be nil")
	}
	if IsInfrastructure(ErrAccountNotFound) {
		t.Error("domain errors are not infrastructure")
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in, first, last string
	}{
		{in: "Amina Nakato", first: "Amina", last: "Nakato"},
		{in: "  Amina   Grace Nakato ", first: "Amina", last: "Grace Nakato"},
		{in: "Amina", first: "Amina", last: ""},
		{in: "", first: "", last: ""},
	}

	for _, test := range tests {
		first, last := SplitFullName(test.in)
		if first != test.first || last != test.last {
			t.Errorf("SplitFullName(%q) = (%q, %q), want (%q, %q)", test.in, first, last, test.first, test.last)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now}
	if !s.Expired(now) {
		t.Error("session should be expired at ExpiresAt")
	}
	if s.Expired(now.Add(-time.Second)) {
		t.Error("session should be live before ExpiresAt")
	}
}
