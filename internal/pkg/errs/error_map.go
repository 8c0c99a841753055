/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses, websocket error events and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnsupportedEvent:     {Code: ErrUnsupportedEvent, Message: "Unsupported event type."},

	// 2xxx: Room and Message Errors
	ErrInvalidRoom:     {Code: ErrInvalidRoom, Message: "Unknown room.", Status: http.StatusNotFound},
	ErrNotInRoom:       {Code: ErrNotInRoom, Message: "You are not in this room."},
	ErrNotIdentified:   {Code: ErrNotIdentified, Message: "Connect as a user before joining rooms or sending messages."},
	ErrInvalidMessage:  {Code: ErrInvalidMessage, Message: "Message must be between 1 and %d characters."},
	ErrMessageNotFound: {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrIdentityMismatch:   {Code: ErrIdentityMismatch, Message: "Username does not match your session."},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Username must be %d-%d characters using letters, digits, '_', '.' or '-'.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Password must be %d-%d characters.", Status: http.StatusBadRequest},
	ErrUsernameTaken:      {Code: ErrUsernameTaken, Message: "Username already exists.", Status: http.StatusBadRequest},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Invalid username or password.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:          {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreUnavailable: {Code: ErrStoreUnavailable, Message: "Storage is unavailable. Please try again.", Status: http.StatusServiceUnavailable},
}
