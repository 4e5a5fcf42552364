package client

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures: timeout, abort, unreachable host.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassValidation represents rejected request input, either 422 from
	// the API or a write refused by local validation before sending.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassApplication represents a 2xx response carrying a non-zero code.
	ErrorClassApplication ErrorClass = "application"

	// ErrorClassProtocol represents a response body that is not a valid envelope.
	ErrorClassProtocol ErrorClass = "protocol"
)

// ErrTimeout is wrapped by APIError when the request timeout elapsed.
var ErrTimeout = errors.New("request timed out")

// APIError is the single error type returned by Client for any failed
// request, whichever layer signaled the failure.
type APIError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Code is the envelope's application code, when one was decoded.
	Code int

	Class     ErrorClass
	Message   string
	RequestID string
	Err       error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s error (status %d, code %d): %s: %v",
			e.Class, e.StatusCode, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("api %s error (status %d, code %d): %s",
		e.Class, e.StatusCode, e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because the timeout elapsed.
func (e *APIError) Timeout() bool {
	return errors.Is(e.Err, ErrTimeout)
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// classifyStatus maps a failed HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 422:
		return ErrorClassValidation
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassApplication
	}
}
