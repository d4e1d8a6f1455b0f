package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("request is no longer pending")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError is returned before any mutation when input is malformed.
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

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ShortfallError reports stock that could not be consumed.
type ShortfallError struct {
	ProductID string
	Key       *VariantKey
	Requested int
	Shortfall int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s): short %d of %d",
		e.ProductID, e.Key.String(), e.Shortfall, e.Requested)
}

func (e *ShortfallError) Unwrap() error {
	return ErrInsufficientStock
}
