package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/albertcolmenero/invoicehub/apperr"
	"github.com/albertcolmenero/invoicehub/models"
)

// Totals are the aggregate figures stored alongside an invoice. They are
// always a function of the invoice's current item list.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// ComputeTotals validates items and sums them:
//
//	subtotal  = Σ quantity × unit price
//	taxAmount = Σ quantity × unit price × tax percent / 100
//	total     = subtotal + taxAmount
func ComputeTotals(items []models.LineItem) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, apperr.New("empty item list").
			WithHint("at least one line item is required").
			Mark(apperr.ErrValidation)
	}
	for i, it := range items {
		if err := checkLine(i, it); err != nil {
			return Totals{}, err
		}
	}

	subtotal, tax := decimal.Zero, decimal.Zero
	for _, it := range items {
		base := it.Quantity.Mul(it.UnitPrice)
		subtotal = subtotal.Add(base)
		tax = tax.Add(percentOf(base, it.TaxPercent))
	}
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}, nil
}

// LineAmount is the tax-inclusive amount shown on a line. It is never summed
// into the aggregates.
func LineAmount(it models.LineItem) decimal.Decimal {
	base := it.Quantity.Mul(it.UnitPrice)
	return base.Add(percentOf(base, it.TaxPercent))
}

// Recompute derives the totals of an already persisted item list.
func Recompute(items []models.InvoiceItem) (Totals, error) {
	lines := make([]models.LineItem, len(items))
	for i, it := range items {
		lines[i] = it.Line()
	}
	return ComputeTotals(lines)
}

// Equal compares totals by value, ignoring decimal scale.
func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) && t.TaxAmount.Equal(o.TaxAmount) && t.Total.Equal(o.Total)
}

// Of reads the stored totals of an invoice.
func Of(inv models.Invoice) Totals {
	return Totals{Subtotal: inv.Subtotal, TaxAmount: inv.TaxAmount, Total: inv.Total}
}

func (t Totals) applyTo(inv *models.Invoice) {
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.Total = t.Total
}

func percentOf(v, percent decimal.Decimal) decimal.Decimal {
	return v.Mul(percent).Shift(-2)
}

func checkLine(i int, it models.LineItem) error {
	switch {
	case strings.TrimSpace(it.Description) == "":
		return apperr.Newf("item %d: blank description", i).
			WithHintf("items[%d].description is required", i).
			Mark(apperr.ErrValidation)
	case it.MissingField() != "":
		return apperr.Newf("item %d: missing %s", i, it.MissingField()).
			WithHintf("items[%d].%s is required", i, it.MissingField()).
			Mark(apperr.ErrValidation)
	case it.Quantity.IsNegative():
		return apperr.Newf("item %d: negative quantity %s", i, it.Quantity).
			WithHintf("items[%d].quantity must be non-negative", i).
			Mark(apperr.ErrValidation)
	case it.UnitPrice.IsNegative():
		return apperr.Newf("item %d: negative unit price %s", i, it.UnitPrice).
			WithHintf("items[%d].unit_price must be non-negative", i).
			Mark(apperr.ErrValidation)
	case it.TaxPercent.IsNegative():
		return apperr.Newf("item %d: negative tax percent %s", i, it.TaxPercent).
			WithHintf("items[%d].tax_percent must be non-negative", i).
			Mark(apperr.ErrValidation)
	}
	return nil
}
