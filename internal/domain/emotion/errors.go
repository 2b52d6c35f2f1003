package emotion

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned before any transport work when the text is blank.
	ErrEmptyInput = errors.New("input text is empty")

	ErrNetwork          = errors.New("network error")
	ErrAuth             = errors.New("authentication failed")
	ErrDomainNotAllowed = errors.New("domain not allowed")
	ErrFunctionMissing  = errors.New("remote function not found")
	ErrHTTPStatus       = errors.New("unexpected http status")
	ErrRemoteFailure    = errors.New("remote reported failure")

	// ErrSchema marks provider output that cannot be turned into a Result.
	ErrSchema = errors.New("invalid analysis payload")

	ErrUnknownMode = errors.New("unknown transport mode")
)

// TransportError is returned by every Transport. Kind is one of the transport sentinels above.
type TransportError struct {
	Kind       error
	StatusCode int
	Host       string
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Kind.Error()
	switch {
	case e.StatusCode != 0:
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	case e.Host != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Host)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Is(target error) bool { return target == e.Kind }

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError describes why a payload was rejected.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrSchema, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrSchema, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return e.Err }

func schemaErr(reason string, err error) error {
	return &SchemaError{Reason: reason, Err: err}
}

// KindOf names the error family for API responses and logs.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrDomainNotAllowed):
		return "domain_not_allowed"
	case errors.Is(err, ErrFunctionMissing):
		return "function_missing"
	case errors.Is(err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, ErrRemoteFailure):
		return "remote_failure"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrUnknownMode):
		return "config"
	default:
		return "internal"
	}
}
