package storage

import "errors"

var (
	ErrEmptyKey   = errors.New("storage key must not be empty")
	ErrInvalidKey = errors.New("storage key contains a parent directory segment")
)
