package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies the failures surfaced by the cart, checkout and purchase components.
type Kind string

const (
	KindAuthRequired        Kind = "AUTH_REQUIRED"
	KindProductsUnavailable Kind = "PRODUCTS_UNAVAILABLE"
	KindProductNotFound     Kind = "PRODUCT_NOT_FOUND"
	KindInsufficientStock   Kind = "INSUFFICIENT_STOCK"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindPersistence         Kind = "PERSISTENCE_ERROR"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind that wraps err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrAuthRequired        = New(KindAuthRequired, "Please login to purchase")
	ErrProductsUnavailable = New(KindProductsUnavailable, "Products not available. Please refresh the page and try again.")
	ErrProductNotFound     = New(KindProductNotFound, "Product not found")
	ErrInsufficientStock   = New(KindInsufficientStock, "Insufficient stock")
	ErrValidation          = New(KindValidation, "Invalid input provided")
	ErrPersistence         = New(KindPersistence, "Database operation failed")
)

// Validation is a shorthand for a validation error with a user-facing message.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Persistence wraps a store failure.
func Persistence(message string, err error) *Error {
	return Wrap(KindPersistence, message, err)
}

// KindOf reports the kind of err. Unclassified errors are treated as persistence failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistence
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
