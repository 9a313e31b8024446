// Package pricing implements the order total calculator.
//
// Given a list of (quantity, unit price) lines plus shipping cost and
// discount it derives:
//
//	subtotal = Σ(quantity × unitPrice), rounded to 2 decimals after summation
//	tax      = round(subtotal × 0.12, 2)
//	total    = round(subtotal + tax + shippingCost − discount, 2)
//
// The calculator is a pure function over decimal values: no I/O, no
// side effects, safe to invoke repeatedly. Negative totals are allowed
// and passed through unchanged.
package pricing
