// Package apperrors holds the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError means the caller sent malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError means the addressed entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// ForbiddenError is a policy denial for an authenticated actor.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message == "" {
		return "access denied"
	}
	return e.Message
}

// ReferenceError means a referenced foreign entity (e.g. an assignee) is missing.
type ReferenceError struct {
	Entity string
	ID     int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("referenced %s %d does not exist", e.Entity, e.ID)
}

// ConflictError is a uniqueness violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

type AuthKind int

const (
	AuthMissing AuthKind = iota + 1
	AuthInvalid
	AuthExpired
	AuthUnknownSubject
	AuthDeactivated
	AuthBadCredentials
)

func (k AuthKind) String() string {
	switch k {
	case AuthMissing:
		return "missing"
	case AuthInvalid:
		return "invalid"
	case AuthExpired:
		return "expired"
	case AuthUnknownSubject:
		return "unknown_subject"
	case AuthDeactivated:
		return "deactivated"
	case AuthBadCredentials:
		return "bad_credentials"
	}
	return "unknown"
}

// AuthError is an authentication failure. Callers see a generic message;
// Kind is kept for logs and tests.
type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Kind, e.Err)
	}
	return "auth " + e.Kind.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

func Validation(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

func NotFound(entity string, id int64) error { return &NotFoundError{Entity: entity, ID: id} }

func Forbidden(msg string) error { return &ForbiddenError{Message: msg} }

func Reference(entity string, id int64) error { return &ReferenceError{Entity: entity, ID: id} }

func Conflict(msg string) error { return &ConflictError{Message: msg} }

func Auth(kind AuthKind, err error) error { return &AuthError{Kind: kind, Err: err} }

// AuthKindOf returns the kind of an AuthError in err's chain, or 0.
func AuthKindOf(err error) AuthKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
