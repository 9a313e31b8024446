package order

import (
	"fmt"

	"github.com/techthink/backoffice/pkg/types"
)

// statusTransitions defines the legal fulfillment moves. delivered,
// cancelled and refunded are terminal.
var statusTransitions = map[types.Status][]types.Status{
	types.StatusPending:    {types.StatusProcessing, types.StatusCancelled, types.StatusRefunded},
	types.StatusProcessing: {types.StatusShipped, types.StatusCancelled, types.StatusRefunded},
	types.StatusShipped:    {types.StatusDelivered, types.StatusCancelled, types.StatusRefunded},
	types.StatusDelivered:  nil,
	types.StatusCancelled:  nil,
	types.StatusRefunded:   nil,
}

// paymentTransitions defines the legal payment moves. failed -> pending
// models a payment retry.
var paymentTransitions = map[types.PaymentStatus][]types.PaymentStatus{
	types.PaymentPending:  {types.PaymentPaid, types.PaymentFailed},
	types.PaymentPaid:     {types.PaymentRefunded},
	types.PaymentFailed:   {types.PaymentPending},
	types.PaymentRefunded: nil,
}

// CanTransitionStatus reports whether from -> to is a legal status move.
// Re-entering the current state is always permitted as a no-op.
func CanTransitionStatus(from, to types.Status) bool {
	if from == to {
		return true
	}
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether from -> to is a legal payment move.
func CanTransitionPayment(from, to types.PaymentStatus) bool {
	if from == to {
		return true
	}
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionStatus moves the order to the next fulfillment status.
// Entering shipped for the first time stamps ShippedAt; entering
// delivered stamps DeliveredAt and backfills ShippedAt if it was never
// set, so ShippedAt <= DeliveredAt always holds. A timestamp, once set,
// is never cleared or overwritten. Re-entering the current status is a
// no-op that leaves all timestamps untouched.
func (o *Order) TransitionStatus(next types.Status, clock Clock) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", types.ErrInvalidTransition, next)
	}
	if next == o.Status {
		return nil
	}
	if !CanTransitionStatus(o.Status, next) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, o.Status, next)
	}

	now := clock.Now()
	o.Status = next
	switch next {
	case types.StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case types.StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	}
	o.UpdatedAt = now
	return nil
}

// TransitionPaymentStatus moves the order to the next payment status.
// Entering paid for the first time stamps PaidAt; the timestamp is
// never overwritten by later transitions.
func (o *Order) TransitionPaymentStatus(next types.PaymentStatus, clock Clock) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", types.ErrInvalidTransition, next)
	}
	if next == o.PaymentStatus {
		return nil
	}
	if !CanTransitionPayment(o.PaymentStatus, next) {
		return fmt.Errorf("%w: payment %s -> %s", types.ErrInvalidTransition, o.PaymentStatus, next)
	}

	now := clock.Now()
	o.PaymentStatus = next
	if next == types.PaymentPaid && o.PaidAt == nil {
		o.PaidAt = &now
	}
	o.UpdatedAt = now
	return nil
}
