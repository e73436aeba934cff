package apperrors

import "errors"

var (
	ErrNotFound                 = errors.New("not found")
	ErrConflict                 = errors.New("conflict")
	ErrAssociationNotDetermined = errors.New("association never determined")
	ErrAgentStepLimit           = errors.New("agent step limit exceeded")
)
