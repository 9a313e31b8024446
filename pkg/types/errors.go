package types

import "errors"

// Domain errors surfaced to callers of the order core
var (
	// ErrInvalidTransition is returned for an illegal status or payment
	// status move; the order is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInsufficientStock is returned when a stock decrement would drive
	// a tracked product negative and the ledger forbids negative stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicateOrderNumber is returned when the generated order number
	// collides; callers may retry with a freshly generated number.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	// ErrInvalidQuantity is returned for item quantities below 1.
	ErrInvalidQuantity = errors.New("quantity must be >= 1")
	// ErrInvalidPrice is returned for negative unit prices.
	ErrInvalidPrice = errors.New("unit price must not be negative")
	// ErrNoItems is returned when creating an order without line items.
	ErrNoItems = errors.New("order requires at least one item")
)
