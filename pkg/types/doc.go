// Package types defines the shared domain vocabulary for the back-office
// order core: order and payment statuses, payment methods, the shipping
// address snapshot, and the error taxonomy surfaced to callers.
//
// The package has no dependencies beyond the standard library so that
// both internal packages and external consumers can import it freely.
package types
