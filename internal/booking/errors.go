package booking

import (
	"errors"
	"fmt"
)

// Kind classifies a rejection for transport mapping and retry policy.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindPolicyViolation     Kind = "policy_violation"
	KindResourceUnavailable Kind = "resource_unavailable"
	KindAccessDenied        Kind = "access_denied"
	KindInfrastructure      Kind = "infrastructure_error"
)

// Rejection is the structured error every policy decision returns on
// failure. Callers get enough context to render a specific remediation
// action, never a bare boolean.
type Rejection struct {
	Kind       Kind                   `json:"kind"`
	Type       string                 `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return fmt.Sprintf("%s/%s: %s", r.Kind, r.Type, r.Message)
}

// AsRejection unwraps err into a *Rejection if one is in its chain.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsPolicyViolation reports whether err is a recoverable policy rejection.
func IsPolicyViolation(err error) bool {
	rej, ok := AsRejection(err)
	return ok && rej.Kind == KindPolicyViolation
}

func validationError(errType, message string) *Rejection {
	return &Rejection{
		Kind:    KindValidation,
		Type:    errType,
		Title:   "Invalid request",
		Message: message,
	}
}

func accessDenied(errType, message string) *Rejection {
	return &Rejection{
		Kind:    KindAccessDenied,
		Type:    errType,
		Title:   "Not permitted",
		Message: message,
	}
}

// infraError wraps a store failure. The engine fails closed on these: a
// booking is denied rather than admitted on an unreachable store.
func infraError(op string, err error) *Rejection {
	return &Rejection{
		Kind:    KindInfrastructure,
		Type:    "store_error",
		Title:   "Service temporarily unavailable",
		Message: fmt.Sprintf("%s: %v", op, err),
	}
}
