package draft

import "errors"

var (
	// ErrNotFound is returned when the draft or source record does not exist.
	ErrNotFound = errors.New("draft file not found")

	ErrIDExhausted = errors.New("unable to issue an unused draft item id")
)
