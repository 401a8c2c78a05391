package models

import "fmt"

// ValidationCode identifies why a composition was rejected.
type ValidationCode string

const (
	ValidationEmptySelection       ValidationCode = "EMPTY_SELECTION"
	ValidationCategoryNotAllowed   ValidationCode = "CATEGORY_NOT_ALLOWED"
	ValidationCardinalityViolation ValidationCode = "CARDINALITY_VIOLATION"
)

// ValidationError is a well-typed rejection of bad input. The caller fixes
// the request; nothing is retried automatically.
type ValidationError struct {
	Code    ValidationCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// StateCode identifies an operation that is invalid given current aggregate
// state, as opposed to bad input.
type StateCode string

const (
	StateInvalidQuantity       StateCode = "INVALID_QUANTITY"
	StateEmptyCart             StateCode = "EMPTY_CART"
	StateNonPositiveTotal      StateCode = "NON_POSITIVE_TOTAL"
	StatePaymentMethodMismatch StateCode = "PAYMENT_METHOD_MISMATCH"
	StateIllegalTransition     StateCode = "ILLEGAL_TRANSITION"
	StateProductUnavailable    StateCode = "PRODUCT_UNAVAILABLE"
)

// StateError reports an action that is currently unavailable. UIs render it
// differently from a ValidationError.
type StateError struct {
	Code    StateCode
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
