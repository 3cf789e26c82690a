package models

import "errors"

// Common errors returned by the persistence layer.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Namespace errors
	ErrFileNotFound  = errors.New("file not found")
	ErrDuplicatePath = errors.New("path already exists")

	// Permission grant errors
	ErrGrantNotFound = errors.New("permission grant not found")

	// Blob index errors
	ErrBlobNotFound = errors.New("blob not found")
)
