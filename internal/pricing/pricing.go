package pricing

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to every order subtotal.
var TaxRate = decimal.RequireFromString("0.12")

// moneyPlaces is the fixed-point scale for all monetary amounts.
const moneyPlaces = 2

// Line is one (quantity, unit price) pair fed into the calculator.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity × unit price, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the derived monetary state of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculate derives subtotal, tax and total from line items plus shipping
// cost and discount. The subtotal is rounded once after summation, not
// per line. The total is not clamped: a discount larger than the rest of
// the order yields a negative total, which callers display as-is.
//
// Calculate is pure; calling it twice with the same inputs returns the
// same totals.
func Calculate(lines []Line, shippingCost, discount decimal.Decimal) Totals {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}

	subtotal := sum.Round(moneyPlaces)
	tax := subtotal.Mul(TaxRate).Round(moneyPlaces)
	total := subtotal.Add(tax).Add(shippingCost).Sub(discount).Round(moneyPlaces)

	return Totals{Subtotal: subtotal, Tax: tax, Total: total}
}
