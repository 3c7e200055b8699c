// Package apperr carries the closed error taxonomy of the service.
// Controllers translate each kind to exactly one HTTP status; repos and
// policy code never touch HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota
	KindUnauthorized
	KindNotFound
	KindStateConflict
	KindInsufficientInventory
)

type Error struct {
	Kind    Kind
	Message string
	// Field is set for validation errors that point at one input field.
	Field string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized deliberately carries no resource detail; a denial must not
// reveal whether the resource exists.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "not allowed"}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func StateConflict(format string, args ...any) *Error {
	return &Error{Kind: KindStateConflict, Message: fmt.Sprintf(format, args...)}
}

func InsufficientInventory(requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientInventory,
		Field:   "quantityRequested",
		Message: fmt.Sprintf("requested %d but only %d available", requested, available),
	}
}

// HTTPStatus maps an error to its response code. Unknown errors are 500.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindValidation, KindInsufficientInventory:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
