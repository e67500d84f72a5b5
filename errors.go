package pannier

import "errors"

var (
	// ErrNotFound is returned when a requested key is absent from the store.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned when credential or token validation fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is returned when the limiter rejects a request.
	ErrRateLimited = errors.New("rate limited")
	// ErrStoreUnavailable is returned when an object store call fails.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrBadUpload is returned for a missing file part or a disallowed type.
	ErrBadUpload = errors.New("bad upload")
)
