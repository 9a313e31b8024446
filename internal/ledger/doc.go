// Package ledger computes and applies stock movements for order
// mutations.
//
// Every order change maps to a signed delta: adding a line item takes
// stock off the shelf, removing one puts it back, and a quantity change
// moves the difference. The delta functions are pure; Apply performs
// the adjustment against storage inside the caller's transaction, so an
// order and its stock movement always commit together.
package ledger
