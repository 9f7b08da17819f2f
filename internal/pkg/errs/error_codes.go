/*
Package errs provides custom error types and application-level error code constants.

The codes are stable: they travel in redirect query strings (for example
/login?error=3004) and are resolved back to messages by the views.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrFormParseFailed indicates failure to parse URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrPageNotFound is rendered for unknown routes.
	ErrPageNotFound = 1008

	// ErrMethodNotAllowed is rendered when the path exists but not for this method.
	ErrMethodNotAllowed = 1009
)

// 2xxx: Secrets
const (
	// ErrSecretEmpty indicates the submitted secret was blank.
	ErrSecretEmpty = 2001

	// ErrSecretTooLong indicates the submitted secret exceeded MaxSecretLength.
	ErrSecretTooLong = 2002
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrAlreadyLoggedIn is flashed when a signed-in user is sent away from the login or register forms.
	ErrAlreadyLoggedIn = 3001

	ErrInvalidUsername = 3002
	ErrInvalidPassword = 3003

	// ErrInvalidCredentials is the only login failure users ever see, whatever the cause.
	ErrInvalidCredentials = 3004

	ErrUserAlreadyExists = 3005

	// ErrFederatedUnavailable indicates that no identity provider is configured.
	ErrFederatedUnavailable = 3007

	// ErrFederatedFailed covers provider denial, state mismatch and failed code exchange.
	ErrFederatedFailed = 3008
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates the credential store could not serve the request.
	ErrStorageFailed = 5001

	// ErrSessionFailed indicates the session store could not serve the request.
	ErrSessionFailed = 5002
)
