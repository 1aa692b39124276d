// Package errors carries coded storefront errors. The code decides the HTTP
// status and the shopper-facing message; Message is for logs only.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/louisbranch/storefront/internal/platform/i18n"
)

// Error is a coded error with optional template data and cause.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so sentinels compare by code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

// New returns an error with code and an internal message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata is New plus values for the localized message template.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	err := New(code, message)
	err.Metadata = metadata
	return err
}

// Wrap is New with a cause kept in the chain.
func Wrap(code Code, message string, cause error) *Error {
	err := New(code, message)
	err.Cause = cause
	return err
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var coded *Error
	if stderrors.As(err, &coded) && coded != nil {
		return coded, true
	}
	return nil, false
}

// CodeOf returns err's code, or CodeUnknown for uncoded errors.
func CodeOf(err error) Code {
	if coded, ok := As(err); ok {
		return coded.Code
	}
	return CodeUnknown
}

// HTTPStatus maps err to a response status; nil is 200 and uncoded errors
// are 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return CodeOf(err).HTTPStatus()
}

// Public returns the code and localized message safe to show a client.
// Uncoded errors never leak their text.
func Public(err error, locale string) (Code, string) {
	code := CodeUnknown
	var data map[string]string
	if coded, ok := As(err); ok {
		code = coded.Code
		data = coded.Metadata
	}
	return code, i18n.Default().Error(locale, string(code), data)
}
