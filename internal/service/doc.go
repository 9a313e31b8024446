// Package service orchestrates order mutations over storage and the
// stock ledger.
//
// OrderService is the write path for orders: creation, line item
// changes, status and payment transitions, repricing and soft
// deletion. Each mutation runs in one transaction, so the order header,
// its line items and the matching stock movements are atomic. Time
// comes from an injected clock, never from the environment, which keeps
// timestamp behavior testable.
package service
