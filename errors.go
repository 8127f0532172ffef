package uploadclient

import "errors"

var (
	// ErrMissingQuery indicates a request without a query string.
	ErrMissingQuery = errors.New("uploadclient: missing query")
)
