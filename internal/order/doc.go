// Package order implements the order aggregate: the order header, its
// owned line items, and the two independent state machines for
// fulfillment status and payment status.
//
// # Aggregate invariants
//
// Totals are derived, never authored. Every mutation to the item
// collection, shipping cost or discount routes through RecomputeTotals,
// which holds total == subtotal + tax + shippingCost − discount with
// tax recomputed at 12% of the subtotal.
//
// # State machines
//
// Fulfillment: pending → processing → shipped → delivered, where
// pending, processing and shipped may also move to cancelled or
// refunded. delivered, cancelled and refunded are terminal.
//
// Payment: pending → paid | failed, paid → refunded, failed → pending.
//
// Transitions stamp paidAt, shippedAt and deliveredAt exactly once;
// re-entering a state never overwrites an existing timestamp. Time is
// injected through the Clock interface rather than read ambiently.
package order
