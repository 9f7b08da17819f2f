package errs

import (
	"fmt"
	"strconv"
	"strings"

	"secrets/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It wraps the Go error interface, adding a business code and HTTP status code.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the standard HTTP status code corresponding to this error.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Query returns the value used to carry the error in a redirect URL.
func (e CustomError) Query() string {
	return strconv.Itoa(e.Code)
}

// NewError constructs a *CustomError from a predefined code.
// details are printf arguments for messages that carry a placeholder; for
// ErrUnknown the first detail may be the underlying error, which is logged.
// Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(
				originalErr,
				"Handling ErrUnknown with underlying error",
			)
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
			)
		}
	}

	return &customErr
}

// Lookup resolves an error code taken from a query string. Only codes meant
// to be shown next to a form are accepted, so arbitrary input never turns
// into an internal error message.
func Lookup(raw string) (*CustomError, bool) {
	code, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	if _, ok := flashable[code]; !ok {
		return nil, false
	}
	return NewError(code), true
}
