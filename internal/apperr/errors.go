package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidLabel = errors.New("invalid graph label")
	ErrInvalidUTF8  = errors.New("invalid UTF-8")
)
