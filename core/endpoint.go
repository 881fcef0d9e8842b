package core

// EndpointProvider provides a list of endpoints to register dynamically
type EndpointProvider interface {
	Endpoints() []*Endpoint
}

// Operation IDs shared by the endpoint table and the HTTP adapters.
const (
	OpSignUp             = "signUp"
	OpLogin              = "login"
	OpLogout             = "logout"
	OpVerifyEmail        = "verifyEmail"
	OpResendVerification = "sendNewVerificationEmail"
	OpForgotPassword     = "forgotPassword"
	OpResetPassword      = "resetPassword"
	OpCheckAuth          = "checkAuth"
)

type Endpoint struct {
	Path      string
	Method    string
	Protected bool // requires a valid session cookie
	Metadata  EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MessageResponse is the body of a successful request, with the user when
// the operation returns one.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}
