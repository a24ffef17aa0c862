// Package apperror carries the caller-visible rejection kinds of the service.
//
// Business failures are built with New and keep their kind, status, title and detail
// all the way to the response writer. Unexpected failures are built with Internal: the
// cause stays attached for logging and never reaches the caller.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind names a rejection. The value doubles as the slug of the problem type URL.
type Kind string

const (
	KindValidation              Kind = "validation-error"
	KindUserExists              Kind = "user-exists"
	KindInvalidCredentials      Kind = "invalid-credentials"
	KindUserNotFound            Kind = "user-not-found"
	KindMissingToken            Kind = "missing-token"
	KindInvalidTokenFormat      Kind = "invalid-token-format"
	KindInvalidToken            Kind = "invalid-token"
	KindUserDeactivated         Kind = "user-deactivated"
	KindUnauthenticated         Kind = "no-user-context"
	KindInsufficientPermissions Kind = "insufficient-permissions"
	KindNotFound                Kind = "not-found"
	KindInternal                Kind = "internal-error"
)

// TypeBase prefixes every problem type URL.
const TypeBase = "https://api.homeservices.co.za/errors/"

type defaults struct {
	status int
	title  string
}

var kindDefaults = map[Kind]defaults{
	KindValidation:              {http.StatusBadRequest, "Validation Error"},
	KindUserExists:              {http.StatusConflict, "User Already Exists"},
	KindInvalidCredentials:      {http.StatusUnauthorized, "Invalid Credentials"},
	KindUserNotFound:            {http.StatusNotFound, "User Not Found"},
	KindMissingToken:            {http.StatusUnauthorized, "Authentication Required"},
	KindInvalidTokenFormat:      {http.StatusUnauthorized, "Invalid Token Format"},
	KindInvalidToken:            {http.StatusUnauthorized, "Invalid or Expired Token"},
	KindUserDeactivated:         {http.StatusUnauthorized, "User Account Deactivated"},
	KindUnauthenticated:         {http.StatusUnauthorized, "Authentication Required"},
	KindInsufficientPermissions: {http.StatusForbidden, "Insufficient Permissions"},
	KindNotFound:                {http.StatusNotFound, "Not Found"},
	KindInternal:                {http.StatusInternalServerError, "Internal Server Error"},
}

// FieldError is one failed input rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a structured rejection.
type Error struct {
	Kind   Kind
	Status int
	Title  string
	Detail string
	Fields []FieldError

	cause error
}

// New builds a rejection of kind with the kind's default status and title.
func New(kind Kind, detail string) *Error {
	d, ok := kindDefaults[kind]
	if !ok {
		d = kindDefaults[KindInternal]
	}
	return &Error{Kind: kind, Status: d.status, Title: d.title, Detail: detail}
}

// Internal wraps an unexpected failure. title and detail are what the caller sees.
func Internal(title, detail string, cause error) *Error {
	return &Error{
		Kind:   KindInternal,
		Status: http.StatusInternalServerError,
		Title:  title,
		Detail: detail,
		cause:  cause,
	}
}

// Validation builds a ValidationError whose detail is the first failure.
func Validation(fields []FieldError) *Error {
	detail := "invalid payload"
	if len(fields) > 0 {
		detail = fields[0].Field + " " + fields[0].Message
	}
	e := New(KindValidation, detail)
	e.Fields = fields
	return e
}

// WithStatus returns a copy of e answering with status.
func (e *Error) WithStatus(status int) *Error {
	cp := *e
	cp.Status = status
	return &cp
}

// WithTitle returns a copy of e with a different title.
func (e *Error) WithTitle(title string) *Error {
	cp := *e
	cp.Title = title
	return &cp
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, " (%v)", e.cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error of the same kind, so sentinel-style comparisons work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Type returns the problem type URL.
func (e *Error) Type() string { return TypeBase + string(e.Kind) }

// KindOf returns the kind carried by err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// From returns err as an *Error, wrapping anything else as a generic internal failure.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("Internal Server Error", "An unexpected error occurred", err)
}
