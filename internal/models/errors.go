package models

import "errors"

// Store-level errors shared by every repository implementation.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)
