// Package apierrors holds the error taxonomy shared by the handlers.
// middlewares.ErrorHandler turns each type into its HTTP response.
package apierrors

import "fmt"

// ValidationError reports missing or malformed caller input (HTTP 400).
type ValidationError struct {
	Message string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Validation returns a ValidationError with the given message.
func Validation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// ForbiddenDomainError reports a proxy target outside the host allow-list (HTTP 400).
type ForbiddenDomainError struct {
	Host string
}

func (e *ForbiddenDomainError) Error() string {
	if e.Host == "" {
		return "domain not allowed: invalid target url"
	}
	return fmt.Sprintf("domain not allowed: %s", e.Host)
}

// StoreError wraps a failed datastore call (HTTP 500).
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// UpstreamError wraps a failed forwarded call, or an upstream body that
// could not be decoded where decoding is required (HTTP 500).
type UpstreamError struct {
	TargetURL string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.TargetURL, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
