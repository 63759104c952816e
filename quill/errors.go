package quill

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrIO           ErrorKind = "io"
	ErrSQL          ErrorKind = "sql"
	ErrSchema       ErrorKind = "schema"
	ErrSyntax       ErrorKind = "syntax"
	ErrUnknownField ErrorKind = "unknown_field"
	ErrValue        ErrorKind = "value"
	ErrNotFound     ErrorKind = "not_found"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func SchemaError(msg string) *Error {
	return &Error{Kind: ErrSchema, Message: msg}
}

func SyntaxError(msg string, cause error) *Error {
	return &Error{Kind: ErrSyntax, Message: msg, Cause: cause}
}

func UnknownFieldError(field string) *Error {
	return &Error{Kind: ErrUnknownField, Message: "unknown field", Field: field}
}

func NotFoundError(id string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("note not found: %s", id)}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
