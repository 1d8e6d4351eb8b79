package apperrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindValidation             Kind = "validation_error"
	KindDuplicateIdentifier    Kind = "duplicate_identifier"
	KindDuplicateStudent       Kind = "duplicate_student"
	KindRenameIO               Kind = "rename_io_error"
	KindInvalidCredential      Kind = "invalid_credential"
	KindUnsupportedImageFormat Kind = "unsupported_image_format"
	KindUnauthorized           Kind = "unauthorized"
	KindForbidden              Kind = "forbidden"
	KindInternal               Kind = "internal"
)

// Error is the error type returned by the service layer. Message is safe to
// show to clients; Err carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation builds a validation error carrying a field -> message map.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Invalid input. Please check your fields.", Fields: fields}
}

func Field(field, message string) *Error {
	return Validation(map[string]string{field: message})
}

func DuplicateIdentifier(eventID string) *Error {
	return &Error{
		Kind:    KindDuplicateIdentifier,
		Message: "Event ID already exists.",
		Fields:  map[string]string{"event_id": fmt.Sprintf("event with id %q already exists", eventID)},
	}
}

func DuplicateStudent() *Error {
	return &Error{
		Kind:    KindDuplicateStudent,
		Message: "Student ID is already registered.",
		Fields:  map[string]string{"student_id": "registration with this student id already exists"},
	}
}

func InvalidCredential() *Error {
	return New(KindInvalidCredential, "Invalid ID or Password")
}

func Internal(err error) *Error {
	return Wrap(KindInternal, "Internal server error.", err)
}

// KindOf reports the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
