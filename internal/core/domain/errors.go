package domain

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrNoLocation       = errors.New("no location recorded for identity")
	ErrForbidden        = errors.New("access forbidden")
	ErrPersistence      = errors.New("persistence error")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")

	// Device-side failures.
	ErrPermissionDenied = errors.New("location permission denied")
	ErrDelivery         = errors.New("sample delivery failed")
)
