// Package errs defines the error kinds surfaced by the quoting and labelling core.
//
// Each kind follows the same pattern: a sentinel (ErrConfiguration, ErrProvider,
// ErrValidation), a struct carrying the details, constructors with and without a
// cause, and an Unwrap method returning the sentinel so callers can match with
// errors.Is and recover details with errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// MaxExcerpt bounds the provider response text kept for diagnostics.
const MaxExcerpt = 200

var (
	ErrConfiguration = errors.New("configuration error")
	ErrProvider      = errors.New("provider error")
	ErrValidation    = errors.New("validation error")
)

// ConfigurationError reports a missing or malformed warehouse catalog or setting.
type ConfigurationError struct {
	Reason string
	Cause  error
}

func NewConfigurationError(reason string) *ConfigurationError {
	return &ConfigurationError{Reason: reason}
}

func NewConfigurationErrorWithCause(reason string, cause error) *ConfigurationError {
	return &ConfigurationError{Reason: reason, Cause: cause}
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrConfiguration, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// ProviderError reports a failed call to the external rate/label provider.
// Status is the HTTP status returned by the provider, or the status the
// boundary should answer with when the provider reply could not be used.
type ProviderError struct {
	Status  int
	Message string
	Excerpt string
	Cause   error
}

func NewProviderError(status int, message, body string) *ProviderError {
	return &ProviderError{Status: status, Message: message, Excerpt: Excerpt(body)}
}

func NewProviderErrorWithCause(status int, message, body string, cause error) *ProviderError {
	return &ProviderError{Status: status, Message: message, Excerpt: Excerpt(body), Cause: cause}
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(ErrProvider.Error())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return ErrProvider
}

// ValidationError reports a missing or invalid request field.
type ValidationError struct {
	ParamName string
	Reason    string
}

func NewValidationError(paramName, reason string) *ValidationError {
	return &ValidationError{ParamName: paramName, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.ParamName, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Excerpt truncates s to at most MaxExcerpt characters.
func Excerpt(s string) string {
	r := []rune(s)
	if len(r) <= MaxExcerpt {
		return s
	}
	return string(r[:MaxExcerpt])
}
