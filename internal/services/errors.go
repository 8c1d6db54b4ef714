package services

import (
	"errors"
	"fmt"
)

// ===== SENTINEL ERRORS =====

var (
	// Auth
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountNotActive   = errors.New("account not active")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email or username already registered")
	ErrTokenInvalid       = errors.New("token invalid or expired")

	// Questions
	ErrQuestionNotFound = errors.New("question not found")

	// Taxonomy
	ErrExamTypeNotFound  = errors.New("exam type not found")
	ErrExamYearNotFound  = errors.New("exam year not found")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrExamNotFound      = errors.New("exam not found")
	ErrDuplicateExamType = errors.New("exam type already exists")
	ErrDuplicateExamYear = errors.New("exam year already exists for this exam type")
	ErrDuplicateSubject  = errors.New("subject already exists for this exam year")

	// Generic
	ErrProfileNotFound = errors.New("profile not found")
)

// ===== PERMISSION ERRORS =====

// PermissionError carries the denied resource and operation so handlers can
// report a useful 403.
type PermissionError struct {
	UserID    string
	Resource  string
	Operation string
	Reason    string
}

func NewPermissionError(userID, resource, operation, reason string) *PermissionError {
	return &PermissionError{
		UserID:    userID,
		Resource:  resource,
		Operation: operation,
		Reason:    reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s cannot %s %s (%s)", e.UserID, e.Operation, e.Resource, e.Reason)
}

// ===== VALIDATION ERRORS =====

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field errors so callers get everything wrong
// with a request in one response.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s (%d more)", e[0].Error(), len(e)-1)
}
