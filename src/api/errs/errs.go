package errs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies request failures so handlers map them to a status
// code and a machine-readable error field uniformly.
type Kind string

const (
	NotFound            Kind = "not_found"
	ValidationError     Kind = "validation_error"
	PreconditionFailed  Kind = "precondition_failed"
	Forbidden           Kind = "forbidden"
	PaymentRequired     Kind = "payment_required"
	CollaboratorFailure Kind = "collaborator_failure"
	PersistenceFailure  Kind = "persistence_failure"
)

type Error struct {
	Kind   Kind
	Detail string
	Err    error
	// Extra fields are merged into the JSON response (price metadata
	// on 402 responses, current status on precondition failures).
	Extra map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func (e *Error) With(key string, value any) *Error {
	if e.Extra == nil {
		e.Extra = make(map[string]any)
	}
	e.Extra[key] = value
	return e
}

func status(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case ValidationError, PreconditionFailed:
		return http.StatusBadRequest
	case Forbidden:
		return http.StatusForbidden
	case PaymentRequired:
		return http.StatusPaymentRequired
	case CollaboratorFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the JSON error response for err. Unclassified errors
// are reported as persistence failures rather than leaking internals.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Wrap(PersistenceFailure, "internal error", err)
	}
	body := gin.H{"err": string(appErr.Kind), "detail": appErr.Detail}
	if appErr.Err != nil {
		body["detail"] = fmt.Sprintf("%s: %v", appErr.Detail, appErr.Err)
	}
	for k, v := range appErr.Extra {
		body[k] = v
	}
	c.JSON(status(appErr.Kind), body)
}
