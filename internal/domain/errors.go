package domain

import "errors"

// ErrNotFound is returned when a user, item, booking or request does not exist.
// Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller is not allowed to act on a resource,
// e.g. booking their own item or approving someone else's booking.
// Handlers map it to 403.
var ErrForbidden = errors.New("forbidden")

// ErrValidation is returned when input or the current state breaks a business
// rule: unavailable item, end not after start, booking no longer WAITING.
// Handlers map it to 400.
var ErrValidation = errors.New("validation error")

// ErrBadRequest is returned when a precondition of the request does not hold,
// such as commenting without a finished approved booking.
var ErrBadRequest = errors.New("bad request")

// ErrUnknownState is returned for a booking search state outside the known set.
var ErrUnknownState = errors.New("Unknown state: UNSUPPORTED_STATUS")

// ErrConflict is returned when a unique constraint would be violated.
// Handlers map it to 409.
var ErrConflict = errors.New("conflict")
