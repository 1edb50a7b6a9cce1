package auth

import "fmt"

// Kind classifies why a handshake was rejected.
type Kind int

const (
	KindMissingToken Kind = iota + 1
	KindInvalidToken
	KindExpiredToken
	KindMisconfigured
)

// WebSocket close codes used when a handshake is rejected.
const (
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

func (k Kind) String() string {
	switch k {
	case KindMissingToken:
		return "missing_token"
	case KindInvalidToken:
		return "invalid_token"
	case KindExpiredToken:
		return "expired_token"
	case KindMisconfigured:
		return "misconfigured"
	default:
		return "unknown"
	}
}

// CloseCode is the close code the connection is terminated with.
func (k Kind) CloseCode() int {
	if k == KindMisconfigured {
		return CloseInternalError
	}
	return ClosePolicyViolation
}

// Reason is the close reason sent to the client.
func (k Kind) Reason() string {
	switch k {
	case KindMissingToken:
		return "authentication token required"
	case KindExpiredToken:
		return "authentication token expired"
	case KindMisconfigured:
		return "server misconfigured"
	default:
		return "invalid authentication token"
	}
}

// AuthError is returned for every rejected handshake.
type AuthError struct {
	Kind Kind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

func newAuthError(kind Kind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}
