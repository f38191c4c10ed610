package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUnknownRole       = errors.New("unknown role")
)

// Measurement errors
var (
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrNotPendingApproval  = errors.New("measurement is not pending approval")
	ErrAlreadyDeleted      = errors.New("measurement is already deleted")
	ErrNotDeleted          = errors.New("measurement is not deleted")
	ErrReasonRequired      = errors.New("a non-empty reason is required")
)
