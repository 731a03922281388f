package app

import "errors"

var (
	ErrUsernameAndPasswordRequired = errors.New("username and password required")

	// ErrIdentityRequired is returned when a book operation has no acting user.
	ErrIdentityRequired = errors.New("identity required")

	ErrInvalidPrice = errors.New("price must be between 0 and 9999999999.99 with at most 2 decimal places")

	// ErrForbidden covers both a missing book and one owned by someone else.
	ErrForbidden = errors.New("forbidden")
)
