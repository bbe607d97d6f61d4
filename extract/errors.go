package extract

import "errors"

var (
	// ErrSourceRequired is returned when no thread source is provided.
	ErrSourceRequired = errors.New("thread source is required")
)
