package repository

import "errors"

// Sentinel errors shared by every store backend. Handlers map them to HTTP
// statuses, so backends must return these rather than driver-specific errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
)
