package render

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertcolmenero/invoicehub/models"
)

func sampleInvoice() models.Invoice {
	d := decimal.RequireFromString
	return models.Invoice{
		InvoiceNumber: "INV-000042",
		InvoiceDate:   models.NewDate(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)),
		DueDate:       models.NewDate(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)),
		Status:        models.StatusSent,
		Subtotal:      d("250"),
		TaxAmount:     d("20"),
		Total:         d("270"),
		PaymentTerms:  lo.ToPtr("Net 30"),
		Items: []models.InvoiceItem{
			{Description: "Design", Quantity: d("2"), UnitPrice: d("100"), TaxPercent: d("10"), Amount: d("220")},
			{Description: "Hosting", Quantity: d("1.5"), UnitPrice: d("33.333"), TaxPercent: d("0"), Amount: d("49.9995")},
		},
		Client: &models.Client{
			Name:    "Acme",
			Email:   "ap@acme.test",
			Address: lo.ToPtr("1 Main St"),
			City:    lo.ToPtr("Springfield"),
			State:   lo.ToPtr("IL"),
			Zip:     lo.ToPtr("62701"),
		},
	}
}

func TestNewInput(t *testing.T) {
	owner := models.User{
		ID:          "owner-1",
		CompanyName: lo.ToPtr("Studio"),
		Address:     lo.ToPtr("9 Side Rd"),
		City:        lo.ToPtr("Portland"),
		ZipCode:     lo.ToPtr("97201"),
		Country:     lo.ToPtr("USA"),
		Phone:       lo.ToPtr("555-0100"),
	}

	in := NewInput(sampleInvoice(), owner)

	assert.Equal(t, "Studio", in.Letterhead.CompanyName)
	assert.Equal(t, []string{"9 Side Rd", "Portland, 97201", "USA"}, in.Letterhead.AddressLines)
	assert.Equal(t, "555-0100", in.Letterhead.Phone)

	assert.Equal(t, "INV-000042", in.Invoice.Number)
	assert.Equal(t, "March 1, 2025", in.Invoice.Date)
	assert.Equal(t, "March 31, 2025", in.Invoice.DueDate)
	assert.Equal(t, "Net 30", in.Invoice.PaymentTerms)
	assert.Empty(t, in.Invoice.Notes)

	assert.Equal(t, "Acme", in.BillTo.Name)
	assert.Equal(t, []string{"1 Main St", "Springfield, IL 62701"}, in.BillTo.AddressLines)

	require.Len(t, in.Items, 2)
	assert.Equal(t, LineItemView{Description: "Design", Quantity: "2", UnitPrice: "$100.00", TaxPercent: "10%", Amount: "$220.00"}, in.Items[0])
	assert.Equal(t, "1.5", in.Items[1].Quantity)
	assert.Equal(t, "$33.33", in.Items[1].UnitPrice)
	assert.Equal(t, "$50.00", in.Items[1].Amount)

	assert.Equal(t, TotalsView{Subtotal: "$250.00", TaxAmount: "$20.00", Total: "$270.00"}, in.Totals)
}

func TestNewInputWithEmptyProfile(t *testing.T) {
	inv := sampleInvoice()
	inv.Client.State = nil

	in := NewInput(inv, models.User{ID: "owner-1"})

	assert.Empty(t, in.Letterhead.CompanyName)
	assert.Empty(t, in.Letterhead.AddressLines)
	assert.Empty(t, in.Letterhead.LogoURL)
	assert.Equal(t, []string{"1 Main St"}, in.BillTo.AddressLines, "city line needs both city and state")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0.00", Money(decimal.Zero))
	assert.Equal(t, "$4.95", Money(decimal.RequireFromString("4.947525")))
	assert.Equal(t, "$1234.50", Money(decimal.RequireFromString("1234.5")))
}
