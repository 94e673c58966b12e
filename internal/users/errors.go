package users

import "errors"

var (
	ErrInvalidInput      = errors.New("username and password are required")
	ErrDuplicateUsername = errors.New("username already registered")
	ErrNotFound          = errors.New("user not found")
	ErrCodeMismatch      = errors.New("verification code does not match")
	ErrAlreadyVerified   = errors.New("user already verified")
	ErrNotVerified       = errors.New("user not verified")
	ErrBadCredential     = errors.New("invalid credentials")
	ErrUserHasPatients   = errors.New("user still has patients assigned")
)
