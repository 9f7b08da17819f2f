package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process submitted data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrPageNotFound:          {Code: ErrPageNotFound, Message: "Page not found.", Status: http.StatusNotFound},
	ErrMethodNotAllowed:      {Code: ErrMethodNotAllowed, Message: "Method not allowed.", Status: http.StatusMethodNotAllowed},

	// 2xxx: Secrets
	ErrSecretEmpty:   {Code: ErrSecretEmpty, Message: "Your secret cannot be empty.", Status: http.StatusBadRequest},
	ErrSecretTooLong: {Code: ErrSecretTooLong, Message: "Your secret is too long.", Status: http.StatusBadRequest},

	// 3xxx: User, Session, and Security Errors
	ErrAlreadyLoggedIn:      {Code: ErrAlreadyLoggedIn, Message: "You are already signed in.", Status: http.StatusConflict},
	ErrInvalidUsername:      {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},
	ErrInvalidPassword:      {Code: ErrInvalidPassword, Message: "Invalid password.", Status: http.StatusBadRequest},
	ErrInvalidCredentials:   {Code: ErrInvalidCredentials, Message: "Incorrect username or password.", Status: http.StatusUnauthorized},
	ErrUserAlreadyExists:    {Code: ErrUserAlreadyExists, Message: "Username is already taken.", Status: http.StatusConflict},
	ErrFederatedUnavailable: {Code: ErrFederatedUnavailable, Message: "Sign in with Google is not available.", Status: http.StatusServiceUnavailable},
	ErrFederatedFailed:      {Code: ErrFederatedFailed, Message: "Sign in with Google failed. Please try again.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:       {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailed: {Code: ErrStorageFailed, Message: "We could not reach our records. Please try again later.", Status: http.StatusInternalServerError},
	ErrSessionFailed: {Code: ErrSessionFailed, Message: "We could not sign you in right now. Please try again later.", Status: http.StatusInternalServerError},
}

// flashable lists the codes that may be carried in a redirect query string.
// Anything else found there is ignored.
var flashable = map[int]struct{}{
	ErrAlreadyLoggedIn:      {},
	ErrSecretEmpty:          {},
	ErrSecretTooLong:        {},
	ErrInvalidUsername:      {},
	ErrInvalidPassword:      {},
	ErrInvalidCredentials:   {},
	ErrUserAlreadyExists:    {},
	ErrFederatedUnavailable: {},
	ErrFederatedFailed:      {},
}
