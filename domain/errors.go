package domain

import "errors"

// Failure kinds surfaced by the store and the checkout engine. Callers match
// them with errors.Is; concrete errors wrap one of these with context.
var (
	// ErrValidation indicates a missing or malformed field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a drug, sale or user id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a quantity above the live stock level.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity indicates a non-positive line quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrEmptyCart is returned when checking out a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrConflict indicates a receipt number collision that survived a retry.
	ErrConflict = errors.New("conflict")
	// ErrStorage wraps any failure reported by the underlying database.
	ErrStorage = errors.New("storage failure")
)
