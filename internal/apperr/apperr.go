// Package apperr is the error taxonomy shared by stores and handlers.
//
// Authentication and authorization failures always surface with a fixed,
// generic message. Validation and conflict errors carry their own message.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error attaches a client-facing message to one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// FromDB maps storage errors onto the taxonomy. what names the resource for
// not-found messages.
func FromDB(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("%s already exists", what)
	default:
		return err
	}
}

// Status resolves the HTTP status and client message for err. Anything not
// recognised is an internal error with a generic message.
func Status(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden, "Forbidden"
	}

	var ae *Error
	if errors.As(err, &ae) {
		switch {
		case errors.Is(ae.Kind, ErrValidation), errors.Is(ae.Kind, ErrConflict):
			return fiber.StatusBadRequest, ae.Message
		case errors.Is(ae.Kind, ErrNotFound):
			return fiber.StatusNotFound, ae.Message
		}
	}

	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest, "Invalid request"
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, ErrConflict):
		return fiber.StatusBadRequest, "Already exists"
	}
	return fiber.StatusInternalServerError, "Internal server error"
}
