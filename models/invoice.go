package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/albertcolmenero/invoicehub/apperr"
)

// InvoiceStatus is set explicitly by the owner; it is never derived.
type InvoiceStatus string

const (
	StatusDraft InvoiceStatus = "DRAFT"
	StatusSent  InvoiceStatus = "SENT"
	StatusPaid  InvoiceStatus = "PAID"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid:
		return true
	}
	return false
}

// Invoice is a receivable issued by an owner to one of their clients.
type Invoice struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      string          `json:"client_id"`
	InvoiceDate   Date            `json:"invoice_date"`
	DueDate       Date            `json:"due_date"`
	Status        InvoiceStatus   `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
	PaymentTerms  *string         `json:"payment_terms"`
	Notes         *string         `json:"notes"`
	ShareableLink *string         `json:"shareable_link"`
	ViewCount     int             `json:"view_count"`
	LastViewed    *time.Time      `json:"last_viewed"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []InvoiceItem   `json:"items"`
	Client        *Client         `json:"client,omitempty"`
}

// InvoiceItem is a persisted line item. Items are owned by their invoice and
// replaced as a whole on every edit.
type InvoiceItem struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxPercent  decimal.Decimal `json:"tax_percent"`
	Amount      decimal.Decimal `json:"amount"`
}

// Line returns the billable figures of a persisted item.
func (it InvoiceItem) Line() LineItem {
	return LineItem{
		Description: it.Description,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		TaxPercent:  it.TaxPercent,
	}
}

// LineItem is one billable row as submitted by the owner.
type LineItem struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxPercent  decimal.Decimal `json:"tax_percent"`

	// set while decoding JSON that left the figure out or null
	noQuantity, noUnitPrice bool
}

// UnmarshalJSON records whether quantity and unit_price were supplied.
// tax_percent defaults to zero.
func (it *LineItem) UnmarshalJSON(b []byte) error {
	type plain LineItem
	var raw struct {
		plain
		Quantity  *decimal.Decimal `json:"quantity"`
		UnitPrice *decimal.Decimal `json:"unit_price"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*it = LineItem(raw.plain)
	it.noQuantity = raw.Quantity == nil
	it.noUnitPrice = raw.UnitPrice == nil
	if raw.Quantity != nil {
		it.Quantity = *raw.Quantity
	}
	if raw.UnitPrice != nil {
		it.UnitPrice = *raw.UnitPrice
	}
	return nil
}

// MissingField names the first required figure absent from the decoded
// item, or returns "" when both were given.
func (it LineItem) MissingField() string {
	switch {
	case it.noQuantity:
		return "quantity"
	case it.noUnitPrice:
		return "unit_price"
	}
	return ""
}

// InvoiceInput is used for creating invoices.
type InvoiceInput struct {
	ClientID     string     `json:"client_id" validate:"required"`
	InvoiceDate  Date       `json:"invoice_date" validate:"required"`
	DueDate      Date       `json:"due_date" validate:"required"`
	Items        []LineItem `json:"items" validate:"dive"`
	PaymentTerms *string    `json:"payment_terms" validate:"omitempty,max=2000"`
	Notes        *string    `json:"notes" validate:"omitempty,max=5000"`
}

func (i *InvoiceInput) Validate() error {
	if err := checkStruct(i); err != nil {
		return err
	}
	return checkDueDate(i.InvoiceDate, i.DueDate)
}

// InvoiceUpdateInput is used for editing invoices. Nil header fields are left
// unchanged; Items always replaces the whole item list.
type InvoiceUpdateInput struct {
	ClientID     *string        `json:"client_id" validate:"omitempty,min=1"`
	InvoiceDate  *Date          `json:"invoice_date"`
	DueDate      *Date          `json:"due_date"`
	Status       *InvoiceStatus `json:"status" validate:"omitempty,oneof=DRAFT SENT PAID"`
	Items        []LineItem     `json:"items" validate:"dive"`
	PaymentTerms *string        `json:"payment_terms" validate:"omitempty,max=2000"`
	Notes        *string        `json:"notes" validate:"omitempty,max=5000"`
}

func (i *InvoiceUpdateInput) Validate() error {
	return checkStruct(i)
}

// Apply patches the header fields of inv and re-checks the resulting dates.
func (i *InvoiceUpdateInput) Apply(inv *Invoice) error {
	if i.ClientID != nil {
		inv.ClientID = *i.ClientID
	}
	if i.InvoiceDate != nil && !i.InvoiceDate.IsZero() {
		inv.InvoiceDate = *i.InvoiceDate
	}
	if i.DueDate != nil && !i.DueDate.IsZero() {
		inv.DueDate = *i.DueDate
	}
	if i.Status != nil {
		inv.Status = *i.Status
	}
	if i.PaymentTerms != nil {
		inv.PaymentTerms = i.PaymentTerms
	}
	if i.Notes != nil {
		inv.Notes = i.Notes
	}
	return checkDueDate(inv.InvoiceDate, inv.DueDate)
}

func checkDueDate(issued, due Date) error {
	if due.Before(issued.Time) {
		return apperr.New("due date before invoice date").
			WithHint("due_date must not be before invoice_date").
			Mark(apperr.ErrValidation)
	}
	return nil
}
