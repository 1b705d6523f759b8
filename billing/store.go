package billing

import (
	"context"
	"time"

	"github.com/albertcolmenero/invoicehub/models"
)

// Tx is the set of record-store operations the engine composes into a
// single unit of work. Every method except CountInvoicesForClient is scoped
// by owner.
type Tx interface {
	FindClientByID(ctx context.Context, ownerID, clientID string) (models.Client, error)
	CountInvoicesForClient(ctx context.Context, clientID string) (int, error)
	DeleteClient(ctx context.Context, ownerID, clientID string) error

	// GetInvoice loads the invoice with its items and client.
	GetInvoice(ctx context.Context, ownerID, invoiceID string) (models.Invoice, error)
	// CreateInvoice inserts the invoice header and its items.
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	// UpdateInvoice overwrites header fields and the three aggregates.
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	DeleteInvoiceItems(ctx context.Context, invoiceID string) error
	CreateInvoiceItems(ctx context.Context, invoiceID string, items []models.InvoiceItem) error

	// SetShareableLink stores token unless the invoice already has one and
	// returns whichever token is stored afterwards.
	SetShareableLink(ctx context.Context, ownerID, invoiceID, token string) (string, error)
}

// Store is the durable record store behind the engine. Tx methods called on
// the Store itself run outside any transaction.
type Store interface {
	Tx

	// Atomically runs fn in one transaction. If fn returns an error nothing
	// it wrote is kept.
	Atomically(ctx context.Context, fn func(tx Tx) error) error

	// IncrementInvoiceSequence bumps the counter of scope and returns the new
	// value. ok is false when the scope has no counter yet.
	IncrementInvoiceSequence(ctx context.Context, scope string) (seq int64, ok bool, err error)
	// InitInvoiceSequence creates the counter of scope at floor+1, or bumps
	// it when a concurrent caller created it first.
	InitInvoiceSequence(ctx context.Context, scope string, floor int64) (int64, error)
	// FindMostRecentInvoice returns the newest invoice of ownerID, or of all
	// owners when ownerID is empty. It returns nil when there is none.
	FindMostRecentInvoice(ctx context.Context, ownerID string) (*models.Invoice, error)

	// FindInvoiceByShareToken is the one lookup not scoped by owner.
	FindInvoiceByShareToken(ctx context.Context, token string) (models.Invoice, error)
	IncrementViewCount(ctx context.Context, invoiceID string, at time.Time) error

	GetUser(ctx context.Context, ownerID string) (models.User, error)
}
