// Package render turns a fully loaded invoice and its owner profile into a
// printable document.
package render

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/albertcolmenero/invoicehub/models"
)

const displayDateLayout = "January 2, 2006"

// Renderer produces the binary document of one invoice.
type Renderer interface {
	RenderInvoice(ctx context.Context, in Input) ([]byte, error)
}

// Input is the display-ready view of an invoice. Every figure is already
// formatted; renderers do no arithmetic.
type Input struct {
	Letterhead LetterheadView
	Invoice    InvoiceView
	BillTo     CustomerView
	Items      []LineItemView
	Totals     TotalsView
}

type LetterheadView struct {
	CompanyName  string
	AddressLines []string
	Phone        string
	LogoURL      string
}

type InvoiceView struct {
	Number       string
	Date         string
	DueDate      string
	Status       string
	PaymentTerms string
	Notes        string
}

type CustomerView struct {
	Name         string
	Email        string
	AddressLines []string
}

type LineItemView struct {
	Description string
	Quantity    string
	UnitPrice   string
	TaxPercent  string
	Amount      string
}

type TotalsView struct {
	Subtotal  string
	TaxAmount string
	Total     string
}

// NewInput builds the view of inv printed under owner's letterhead. inv must
// carry its items and client.
func NewInput(inv models.Invoice, owner models.User) Input {
	in := Input{
		Letterhead: LetterheadView{
			CompanyName: lo.FromPtr(owner.CompanyName),
			Phone:       lo.FromPtr(owner.Phone),
			LogoURL:     lo.FromPtr(owner.Logo),
		},
		Invoice: InvoiceView{
			Number:       inv.InvoiceNumber,
			Date:         formatDate(inv.InvoiceDate),
			DueDate:      formatDate(inv.DueDate),
			Status:       string(inv.Status),
			PaymentTerms: lo.FromPtr(inv.PaymentTerms),
			Notes:        lo.FromPtr(inv.Notes),
		},
		Totals: TotalsView{
			Subtotal:  Money(inv.Subtotal),
			TaxAmount: Money(inv.TaxAmount),
			Total:     Money(inv.Total),
		},
	}

	in.Letterhead.AddressLines = nonEmpty(
		lo.FromPtr(owner.Address),
		joinNonEmpty(", ", lo.FromPtr(owner.City), lo.FromPtr(owner.State), lo.FromPtr(owner.ZipCode)),
		lo.FromPtr(owner.Country),
	)

	if c := inv.Client; c != nil {
		in.BillTo = CustomerView{Name: c.Name, Email: c.Email}
		cityLine := ""
		if city, state := lo.FromPtr(c.City), lo.FromPtr(c.State); city != "" && state != "" {
			cityLine = strings.TrimSpace(city + ", " + state + " " + lo.FromPtr(c.Zip))
		}
		in.BillTo.AddressLines = nonEmpty(lo.FromPtr(c.Address), cityLine)
	}

	in.Items = lo.Map(inv.Items, func(it models.InvoiceItem, _ int) LineItemView {
		return LineItemView{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   Money(it.UnitPrice),
			TaxPercent:  it.TaxPercent.String() + "%",
			Amount:      Money(it.Amount),
		}
	})
	return in
}

// Money formats an amount as dollars with two decimals.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func formatDate(d models.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(displayDateLayout)
}

func nonEmpty(parts ...string) []string {
	return lo.Filter(parts, func(s string, _ int) bool { return s != "" })
}

func joinNonEmpty(sep string, parts ...string) string {
	return strings.Join(nonEmpty(parts...), sep)
}
