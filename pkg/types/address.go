package types

import "strings"

// Address is the shipping address snapshot captured at order creation.
// It is independent of any later edits to the customer record.
type Address struct {
	Name       string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}

// String joins the non-empty address parts for display.
func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Address, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
