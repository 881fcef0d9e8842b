package services

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

// BaseEndpoints returns the framework-agnostic endpoints of the
// auth flow, relative to the adapter's base path.
//
// Adapters look up their handler by Metadata.OperationID and wrap the
// endpoint with their session verifier when Protected is set.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		{
			Path:   "/signup",
			Method: http.MethodPost,
			Metadata: core.EndpointMetadata{
				OperationID: core.OpSignUp,
				Description: "Register a user with email, password and name",
			},
		},
		{
			Path:   "/login",
			Method: http.MethodPost,
			Metadata: core.EndpointMetadata{
				OperationID: core.OpLogin,
				Description: "Log in a verified user with email and password",
			},
		},
		{
			Path:   "/logout",
			Method: http.MethodPost,
			Metadata: core.EndpointMetadata{
				OperationID: core.OpLogout,
				Description: "Clear the session cookie",
			},
		},
		{
			Path:   "/verify-email",
			Method: http.MethodPost,
			Metadata: core.EndpointMetadata{
				OperationID: core.OpVerifyEmail,
				Description: "Confirm an email address with the emailed code",
			},
		},
		{
			// Spelling kept for compatibility with deployed web clients.
			Path:   "/send-new-verfication",
			Method: http.MethodPost,
			Metadata: core.EndpointMetadata{
				OperationID: core.OpResendVerification,
				Description: "Mail a fresh verification code",
			},
		},
		{
			Path:   "/forgot-password",
			Method: http.MethodPost,
			Metadata: core.EndpointMetadata{
				OperationID: core.OpForgotPassword,
				Description: "Mail a password reset link",
			},
		},
		{
			Path:   "/reset-password/:token",
			Method: http.MethodPost,
			Metadata: core.EndpointMetadata{
				OperationID: core.OpResetPassword,
				Description: "Set a new password with a reset token",
			},
		},
		{
			Path:      "/check-auth",
			Method:    http.MethodGet,
			Protected: true,
			Metadata: core.EndpointMetadata{
				OperationID: core.OpCheckAuth,
				Description: "Return the user behind the current session",
			},
		},
	}
}

// EndpointRegistry manages a collection of framework-agnostic endpoints
// and handles conflict detection for duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	endpoints map[string]*core.Endpoint
}

var _ core.EndpointProvider = (*EndpointRegistry)(nil)

// NewEndpointRegistry creates a registry with the base endpoints registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		endpoints: make(map[string]*core.Endpoint),
	}

	base := BaseEndpoints()
	for i := range base {
		// Base endpoints are unique by construction.
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

// Register adds extra endpoints. If any of them conflicts with a registered
// endpoint or with another in the same batch, none are added.
func (r *EndpointRegistry) Register(endpoints []core.Endpoint) error {
	seen := make(map[string]bool)
	for i := range endpoints {
		key := endpointKey(&endpoints[i])

		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("endpoint conflict: %s %s already registered", endpoints[i].Method, endpoints[i].Path)
		}
		if seen[key] {
			return fmt.Errorf("duplicate endpoint: %s %s", endpoints[i].Method, endpoints[i].Path)
		}
		seen[key] = true
	}

	for i := range endpoints {
		ep := endpoints[i]
		r.endpoints[endpointKey(&ep)] = &ep
	}

	return nil
}

// Endpoints returns all registered endpoints ordered by path then method.
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
