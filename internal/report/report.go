// Package report renders back-office reports for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/techthink/backoffice/internal/order"
	"github.com/techthink/backoffice/internal/storage"
)

var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	okStyle       = lipgloss.NewStyle().Foreground(success)
	dangerStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderLowStock renders the low-stock report: every tracked product at
// or below its restock threshold, with a suggested restock quantity.
func RenderLowStock(products []*storage.Product) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("backoffice"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Low Stock Report"))
	b.WriteString("\n")
	b.WriteString(separatorLine)
	b.WriteString("\n")

	if len(products) == 0 {
		b.WriteString(okStyle.Render("All tracked products are above their restock thresholds."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%-28s %-12s %8s %10s %10s\n",
		dimStyle.Render("PRODUCT"), dimStyle.Render("SKU"),
		dimStyle.Render("STOCK"), dimStyle.Render("THRESHOLD"), dimStyle.Render("RESTOCK")))

	for _, p := range products {
		stock := warnStyle.Render(fmt.Sprintf("%8d", p.Stock))
		if p.Stock <= 0 {
			stock = dangerStyle.Render(fmt.Sprintf("%8d", p.Stock))
		}
		b.WriteString(fmt.Sprintf("%-28s %-12s %s %10d %10d\n",
			truncate(p.Name, 28), p.SKU, stock, p.LowStockThreshold, p.RestockSuggestion()))
	}

	b.WriteString(separatorLine)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d product(s) need restocking", len(products))))
	b.WriteString("\n")
	return b.String()
}

// RenderOrder renders a single order with its line items.
func RenderOrder(o *order.Order) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(o.Number))
	b.WriteString("  ")
	b.WriteString(statusStyle(string(o.Status)).Render(string(o.Status)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("payment: " + string(o.PaymentStatus)))
	b.WriteString("\n")
	b.WriteString(separatorLine)
	b.WriteString("\n")

	for _, item := range o.Items {
		b.WriteString(fmt.Sprintf("%-34s %4d × %14s = %16s\n",
			truncate(item.ProductName, 34), item.Quantity,
			item.UnitPrice.StringFixed(0), item.Subtotal.StringFixed(0)))
	}

	b.WriteString(separatorLine)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-20s %16s\n", dimStyle.Render("Subtotal"), o.Subtotal.StringFixed(0)))
	b.WriteString(fmt.Sprintf("%-20s %16s\n", dimStyle.Render("Tax (12%)"), o.Tax.StringFixed(0)))
	b.WriteString(fmt.Sprintf("%-20s %16s\n", dimStyle.Render("Shipping"), o.ShippingCost.StringFixed(0)))
	if !o.Discount.IsZero() {
		b.WriteString(fmt.Sprintf("%-20s %16s\n", dimStyle.Render("Discount"), "-"+o.Discount.StringFixed(0)))
	}
	b.WriteString(fmt.Sprintf("%-20s %16s\n", titleStyle.Render("Total"), titleStyle.Render(o.Total.StringFixed(0))))
	return b.String()
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "delivered":
		return okStyle
	case "cancelled", "refunded":
		return dangerStyle
	default:
		return warnStyle
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return fmt.Sprintf("%-*s", max, s)
	}
	return s[:max-1] + "…"
}
