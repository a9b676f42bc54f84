// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the tagged error variant shared by every layer of
// LessonPress. An Error carries a Kind (which decides the HTTP status) and a
// human-readable Message that is safe to show to the admin.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for presentation.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindCSRF          Kind = "csrf"
	KindNotFound      Kind = "not_found"
	KindStorage       Kind = "storage"
	KindInternal      Kind = "internal"
)

// Error is the tagged error returned by the core and the stores.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional underlying cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status code.
func (e *Error) StatusCode() int {
	return statusFor(e.Kind)
}

// Validation builds a KindValidation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Authorization builds a KindAuthorization error.
func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

// CSRF builds a KindCSRF error.
func CSRF(msg string) *Error {
	return &Error{Kind: KindCSRF, Message: msg}
}

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Storage wraps an upstream persistence or object-store failure.
func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode returns the HTTP status for any error. Foreign errors are 500.
func StatusCode(err error) int {
	return statusFor(KindOf(err))
}

// Message returns the admin-facing message. Foreign errors get a generic
// message so internal details never leak into responses.
func Message(err error) string {
	if e, ok := As(err); ok {
		return e.Message
	}
	return "Internal Server Error"
}

func statusFor(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusUnauthorized
	case KindCSRF:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
