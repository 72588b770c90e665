package core

// EndpointProvider provides a list of endpoints to register dynamically
type EndpointProvider interface {
	Endpoints() []*Endpoint
}

// Endpoint is a framework-agnostic route template. Adapters bind a handler
// to it by OperationID.
type Endpoint struct {
	Path      string
	Method    string
	Protected bool
	Metadata  EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
}

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response structure
type ErrorResponse struct {
	Error APIError `json:"error"`
}
