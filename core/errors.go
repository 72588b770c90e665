package core

import "errors"

// Account related errors
var (
	ErrAccountNotFound    = errors.New("account not found")               // 404 Not Found
	ErrPhoneExists        = errors.New("phone number already registered") // 409 Conflict
	ErrMemberIDExists     = errors.New("member id already assigned")      // 409 Conflict
	ErrInvalidCredentials = errors.New("invalid phone number or PIN")     // 401 Unauthorized
)

// Session errors
var (
	ErrMissingAuthHeader = errors.New("missing authorization header") // 401
	ErrInvalidToken      = errors.New("invalid session token")        // 401
	ErrSessionNotFound   = errors.New("session not found")            // 401
	ErrSessionExpired    = errors.New("session expired")              // 401
	ErrCacheNotFound     = errors.New("session not found in cache")
)

// Validation errors (client input)
var (
	ErrInvalidAuthHeader  = errors.New("invalid authorization format, expected 'Bearer <token>'") // 401
	ErrInvalidPhoneFormat = errors.New("invalid phone number")                                     // 400
	ErrInvalidPinFormat   = errors.New("PIN must be exactly 4 digits")                             // 400
	ErrWeakPin            = errors.New("PIN is too easy to guess")                                 // 400
	ErrInvalidNIN         = errors.New("invalid national ID number")                               // 400
	ErrMissingFields      = errors.New("all fields are required")                                  // 400
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired = errors.New("storage adapter is required") // 500
	ErrSecretRequired  = errors.New("secret is required")          // 500
	ErrSecretTooShort  = errors.New("secret too short")            // 500
)

var (
	ErrUnknownOutcome = errors.New("unknown outcome")
)

// InfrastructureError marks a storage or transport fault, as opposed to a
// credential or validation failure. Callers must never show the underlying
// message to users.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Infra wraps err as an InfrastructureError unless it already is one.
func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InfrastructureError
	if errors.As(err, &ie) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}

// IsInfrastructure reports whether err is (or wraps) an InfrastructureError.
func IsInfrastructure(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie)
}
