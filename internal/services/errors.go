package services

import "errors"

// Core error taxonomy. NotFound and Forbidden are terminal for the caller;
// Unknown is retryable because every underlying operation is idempotent.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrSameUser  = errors.New("cannot target yourself")
	ErrNameTaken = errors.New("name not available")
	ErrUnknown   = errors.New("unknown error")
)
