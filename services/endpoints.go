package services

import (
	"fmt"
	"sort"

	"github.com/lborres/abaccess/core"
)

// Operation IDs adapters bind handlers to.
const (
	OpAccountExists = "accountExists"
	OpSignIn        = "signInWithPhoneAndPin"
	OpRegister      = "registerWithPhoneAndPin"
	OpSignOut       = "signOut"
	OpGetSession    = "getSession"
	OpSetCookie     = "setSessionCookie"
	OpClearCookie   = "clearSessionCookie"
	OpRouteDecision = "routeDecision"
)

// BaseEndpoints returns the framework-agnostic endpoint definitions
// for all core authentication endpoints.
//
// Each endpoint is a template; adapters supply the handler matching
// Metadata.OperationID.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		{
			Path:   "/exists",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: OpAccountExists,
				Description: "Check whether an account is registered for a phone number",
			},
		},
		{
			Path:   "/sign-in",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: OpSignIn,
				Description: "Sign in with phone number and PIN",
			},
		},
		{
			Path:   "/register",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: OpRegister,
				Description: "Register a new account and sign it in",
			},
		},
		{
			Path:   "/sign-out",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: OpSignOut,
				Description: "Sign out and invalidate the session",
			},
		},
		{
			Path:      "/session",
			Method:    "GET",
			Protected: true,
			Metadata: core.EndpointMetadata{
				OperationID: OpGetSession,
				Description: "Get the current account and session",
			},
		},
		{
			Path:   "/session",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: OpSetCookie,
				Description: "Store the session in an HTTP-only cookie",
			},
		},
		{
			Path:   "/session",
			Method: "DELETE",
			Metadata: core.EndpointMetadata{
				OperationID: OpClearCookie,
				Description: "Clear the session cookie",
			},
		},
		{
			Path:   "/route",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID: OpRouteDecision,
				Description: "Evaluate the route guard for a client-side navigation",
			},
		},
	}
}

// EndpointRegistry manages a collection of framework-agnostic endpoints
// and handles conflict detection for duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	// keyed by "METHOD:PATH"
	endpoints map[string]*core.Endpoint
}

var _ core.EndpointProvider = (*EndpointRegistry)(nil)

// NewEndpointRegistry creates a new registry with all base endpoints pre-registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		endpoints: make(map[string]*core.Endpoint),
	}

	base := BaseEndpoints()
	for i := range base {
		// base paths are unique
		_ = reg.register(&base[i])
	}

	return reg
}

func endpointKey(ep *core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

func (r *EndpointRegistry) register(ep *core.Endpoint) error {
	key := endpointKey(ep)
	if _, exists := r.endpoints[key]; exists {
		return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
	}
	r.endpoints[key] = ep
	return nil
}

// RegisterPlugin registers additional endpoints. If any of them conflicts
// with a registered endpoint or with another in the same batch, none are
// registered.
func (r *EndpointRegistry) RegisterPlugin(endpoints []core.Endpoint) error {
	seen := make(map[string]bool, len(endpoints))
	for i := range endpoints {
		ep := &endpoints[i]
		key := endpointKey(ep)

		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("plugin endpoint conflict: %s %s already registered", ep.Method, ep.Path)
		}
		if seen[key] {
			return fmt.Errorf("plugin contains duplicate endpoint: %s %s", ep.Method, ep.Path)
		}
		seen[key] = true
	}

	for i := range endpoints {
		ep := endpoints[i]
		r.endpoints[endpointKey(&ep)] = &ep
	}

	return nil
}

// Endpoints returns all registered endpoints ordered by path, then method.
func (r *EndpointRegistry) Endpoints() []*core.Endpoint {
	result := make([]*core.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, ep)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Path != result[j].Path {
			return result[i].Path < result[j].Path
		}
		return result[i].Method < result[j].Method
	})
	return result
}
