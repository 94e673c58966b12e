package patients

import "errors"

var (
	ErrNotFound             = errors.New("patient not found")
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrIDMismatch           = errors.New("path id and payload id differ")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnknownUser          = errors.New("linked user does not exist")
)
