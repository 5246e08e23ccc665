package loan

import "errors"

var (
	ErrNotFound = errors.New("loan request not found")
	// ErrValidation: input breaks a static business rule; nothing was written.
	ErrValidation = errors.New("loan request validation failed")
	// ErrInvalidTransition: the transition is illegal from the current status; nothing was written.
	ErrInvalidTransition = errors.New("loan request not in a state that allows this action")
	// ErrKeyMismatch: the entered payment key is wrong; the attempt is still recorded.
	ErrKeyMismatch = errors.New("payment key does not match")
	ErrNotPaid     = errors.New("loan request has not been paid")
)
