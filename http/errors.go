package http

import "errors"

// ErrUnauthorized is returned when a request carries no valid token.
var ErrUnauthorized = errors.New("unauthorized")
