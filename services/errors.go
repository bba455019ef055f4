package services

import "errors"

var (
	// ErrInvalidQuery is returned for an empty or whitespace-only query or question.
	ErrInvalidQuery = errors.New("query cannot be empty")

	// ErrEmptyDocument is returned when an uploaded file yields no text.
	ErrEmptyDocument = errors.New("uploaded PDF does not contain text")
)
