/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients, over HTTP
responses and over websocket "error" events alike.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrUnsupportedEvent indicates that a websocket frame carried an unknown event type.
	ErrUnsupportedEvent = 1008
)

// 2xxx: Room and Message Errors
const (
	// ErrInvalidRoom indicates that the room tag is not one of the fixed rooms.
	ErrInvalidRoom = 2101

	// ErrNotInRoom indicates a room action from a connection that is not tracked in that room.
	ErrNotInRoom = 2102

	// ErrNotIdentified indicates a room or direct message action before user_connected.
	ErrNotIdentified = 2103

	// ErrInvalidMessage indicates an empty (after trimming) or over-length message body.
	ErrInvalidMessage = 2201

	// ErrMessageNotFound indicates a direct message that does not exist or is not addressed to the caller.
	ErrMessageNotFound = 2202
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid identity token.
	ErrUnauthorized = 3001

	// ErrIdentityMismatch indicates user_connected named a user other than the authenticated one.
	ErrIdentityMismatch = 3002

	// ErrInvalidUsername indicates the username failed format validation.
	ErrInvalidUsername = 3101

	// ErrInvalidPassword indicates the password failed length validation.
	ErrInvalidPassword = 3102

	// ErrUsernameTaken indicates signup with a username that already exists.
	ErrUsernameTaken = 3103

	// ErrInvalidCredentials indicates a login with an unknown username or wrong password.
	ErrInvalidCredentials = 3104
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStoreUnavailable indicates that the message or account store could not be reached.
	ErrStoreUnavailable = 5001
)
