// Package billing is the invoice computation and numbering engine. It turns
// line items into stored totals, assigns invoice numbers, keeps items and
// totals consistent across edits and issues shareable links.
package billing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"

	"github.com/albertcolmenero/invoicehub/apperr"
	"github.com/albertcolmenero/invoicehub/models"
)

const (
	shareTokenBytes   = 32
	defaultMaxRetries = 3
	retryInterval     = 10 * time.Millisecond
)

// Engine runs the invoice write paths against a Store.
type Engine struct {
	store      Store
	scope      Scope
	maxRetries uint64
	now        func() time.Time
	newID      func() string
	newToken   func() (string, error)
	logger     *slog.Logger
}

type Option func(*Engine)

// WithScope selects owner or global numbering.
func WithScope(s Scope) Option {
	return func(e *Engine) { e.scope = s }
}

// WithMaxRetries bounds how often a create is retried after a number
// collision.
func WithMaxRetries(n uint64) Option {
	return func(e *Engine) { e.maxRetries = n }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDSource(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithTokenSource(newToken func() (string, error)) Option {
	return func(e *Engine) { e.newToken = newToken }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		scope:      ScopeOwner,
		maxRetries: defaultMaxRetries,
		now:        time.Now,
		newID:      uuid.NewString,
		newToken:   NewShareToken,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewShareToken returns 256 random bits as 64 hex characters.
func NewShareToken() (string, error) {
	return readShareToken(rand.Reader)
}

func readShareToken(src io.Reader) (string, error) {
	b := make([]byte, shareTokenBytes)
	if _, err := io.ReadFull(src, b); err != nil {
		return "", apperr.Wrap(err).WithMessage("reading random bytes").Mark(apperr.ErrInternal)
	}
	return hex.EncodeToString(b), nil
}

func validShareToken(token string) bool {
	if len(token) != 2*shareTokenBytes {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}

// AssignNextInvoiceNumber hands out the next number of the owner's scope.
// Numbers come from a counter row bumped atomically, so concurrent callers
// never share a number; a failed create leaves a gap. A scope without a
// counter is seeded from its most recent invoice.
func (e *Engine) AssignNextInvoiceNumber(ctx context.Context, ownerID string) (string, error) {
	key := e.sequenceKey(ownerID)
	seq, ok, err := e.store.IncrementInvoiceSequence(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		floor, err := e.sequenceFloor(ctx, ownerID)
		if err != nil {
			return "", err
		}
		if seq, err = e.store.InitInvoiceSequence(ctx, key, floor); err != nil {
			return "", err
		}
	}
	number := FormatInvoiceNumber(seq)
	e.logger.Debug("assigned invoice number", "scope", e.scope, "owner_id", ownerID, "invoice_number", number)
	return number, nil
}

func (e *Engine) sequenceKey(ownerID string) string {
	if e.scope == ScopeGlobal {
		return globalSequenceKey
	}
	return ownerID
}

func (e *Engine) sequenceFloor(ctx context.Context, ownerID string) (int64, error) {
	if e.scope == ScopeGlobal {
		ownerID = ""
	}
	last, err := e.store.FindMostRecentInvoice(ctx, ownerID)
	if err != nil || last == nil {
		return 0, err
	}
	seq, err := ParseInvoiceNumber(last.InvoiceNumber)
	if err != nil {
		e.logger.Error("cannot seed invoice sequence", "owner_id", ownerID, "invoice_number", last.InvoiceNumber)
		return 0, apperr.Newf("seeding sequence: %v", err).
			WithHintf("the latest invoice number %q cannot be continued", last.InvoiceNumber).
			Mark(apperr.ErrInvalidOperation)
	}
	return seq, nil
}

// CreateInvoice validates input, computes totals and stores a DRAFT invoice
// under a freshly assigned number.
func (e *Engine) CreateInvoice(ctx context.Context, ownerID string, input models.InvoiceInput) (models.Invoice, error) {
	if err := input.Validate(); err != nil {
		return models.Invoice{}, err
	}
	totals, err := ComputeTotals(input.Items)
	if err != nil {
		return models.Invoice{}, err
	}
	if _, err := e.store.FindClientByID(ctx, ownerID, input.ClientID); err != nil {
		return models.Invoice{}, err
	}

	now := e.now().UTC()
	inv := models.Invoice{
		ID:           e.newID(),
		OwnerID:      ownerID,
		ClientID:     input.ClientID,
		InvoiceDate:  input.InvoiceDate,
		DueDate:      input.DueDate,
		Status:       models.StatusDraft,
		PaymentTerms: input.PaymentTerms,
		Notes:        input.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	inv.Items = e.buildItems(inv.ID, input.Items)
	totals.applyTo(&inv)

	backoff := retry.WithMaxRetries(e.maxRetries, retry.NewConstant(retryInterval))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		number, err := e.AssignNextInvoiceNumber(ctx, ownerID)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		err = e.store.Atomically(ctx, func(tx Tx) error {
			return tx.CreateInvoice(ctx, &inv)
		})
		if apperr.IsConflict(err) {
			e.logger.Warn("invoice number collision, retrying", "owner_id", ownerID, "invoice_number", number)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return models.Invoice{}, err
	}

	e.logger.Info("invoice created", "owner_id", ownerID, "invoice_id", inv.ID, "invoice_number", inv.InvoiceNumber, "total", inv.Total.String())
	return e.store.GetInvoice(ctx, ownerID, inv.ID)
}

// UpdateInvoice applies the header patch and replaces the item list, all in
// one transaction.
func (e *Engine) UpdateInvoice(ctx context.Context, ownerID, invoiceID string, input models.InvoiceUpdateInput) (models.Invoice, error) {
	if err := input.Validate(); err != nil {
		return models.Invoice{}, err
	}
	totals, err := ComputeTotals(input.Items)
	if err != nil {
		return models.Invoice{}, err
	}

	err = e.store.Atomically(ctx, func(tx Tx) error {
		inv, err := tx.GetInvoice(ctx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if err := input.Apply(&inv); err != nil {
			return err
		}
		if input.ClientID != nil {
			if _, err := tx.FindClientByID(ctx, ownerID, inv.ClientID); err != nil {
				return err
			}
		}
		return e.replaceItems(ctx, tx, &inv, input.Items, totals)
	})
	if err != nil {
		return models.Invoice{}, err
	}
	return e.store.GetInvoice(ctx, ownerID, invoiceID)
}

// ReplaceItemsAndRecompute swaps the invoice's items for items and
// overwrites its totals. Either both change or neither does.
func (e *Engine) ReplaceItemsAndRecompute(ctx context.Context, ownerID, invoiceID string, items []models.LineItem) (models.Invoice, error) {
	return e.UpdateInvoice(ctx, ownerID, invoiceID, models.InvoiceUpdateInput{Items: items})
}

func (e *Engine) replaceItems(ctx context.Context, tx Tx, inv *models.Invoice, lines []models.LineItem, totals Totals) error {
	if err := tx.DeleteInvoiceItems(ctx, inv.ID); err != nil {
		return err
	}
	inv.Items = e.buildItems(inv.ID, lines)
	if err := tx.CreateInvoiceItems(ctx, inv.ID, inv.Items); err != nil {
		return err
	}
	totals.applyTo(inv)
	if err := checkConsistent(*inv); err != nil {
		return err
	}
	inv.UpdatedAt = e.now().UTC()
	return tx.UpdateInvoice(ctx, inv)
}

// checkConsistent refuses to commit totals that do not match the items.
func checkConsistent(inv models.Invoice) error {
	want, err := Recompute(inv.Items)
	if err != nil {
		return err
	}
	if !want.Equal(Of(inv)) {
		return apperr.Newf("invoice %s: stored totals diverge from items", inv.ID).
			Mark(apperr.ErrInvalidOperation)
	}
	return nil
}

func (e *Engine) buildItems(invoiceID string, lines []models.LineItem) []models.InvoiceItem {
	return lo.Map(lines, func(l models.LineItem, i int) models.InvoiceItem {
		return models.InvoiceItem{
			ID:          e.newID(),
			InvoiceID:   invoiceID,
			Position:    i,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxPercent:  l.TaxPercent,
			Amount:      LineAmount(l),
		}
	})
}

// EnsureShareableLink returns the invoice's capability token, creating one
// on first use.
func (e *Engine) EnsureShareableLink(ctx context.Context, ownerID, invoiceID string) (string, error) {
	inv, err := e.store.GetInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return "", err
	}
	if token := lo.FromPtr(inv.ShareableLink); token != "" {
		return token, nil
	}
	token, err := e.newToken()
	if err != nil {
		return "", err
	}
	stored, err := e.store.SetShareableLink(ctx, ownerID, invoiceID, token)
	if err != nil {
		return "", err
	}
	e.logger.Info("shareable link issued", "owner_id", ownerID, "invoice_id", invoiceID)
	return stored, nil
}

// ViewShared resolves a capability token. A successful read counts as one
// view; failing to record it does not fail the read.
func (e *Engine) ViewShared(ctx context.Context, token string) (models.Invoice, models.User, error) {
	if !validShareToken(token) {
		return models.Invoice{}, models.User{}, apperr.New("malformed share token").
			WithHint("invoice not found").
			Mark(apperr.ErrNotFound)
	}
	inv, err := e.store.FindInvoiceByShareToken(ctx, token)
	if err != nil {
		return models.Invoice{}, models.User{}, err
	}
	owner, err := e.OwnerProfile(ctx, inv.OwnerID)
	if err != nil {
		return models.Invoice{}, models.User{}, err
	}

	now := e.now().UTC()
	if err := e.store.IncrementViewCount(ctx, inv.ID, now); err != nil {
		e.logger.Warn("failed to record invoice view", "invoice_id", inv.ID, "error", err)
	} else {
		inv.ViewCount++
		inv.LastViewed = &now
	}
	return inv, owner, nil
}

// OwnerProfile loads the letterhead of ownerID. Owners who never saved
// settings get an empty profile.
func (e *Engine) OwnerProfile(ctx context.Context, ownerID string) (models.User, error) {
	u, err := e.store.GetUser(ctx, ownerID)
	if apperr.IsNotFound(err) {
		return models.User{ID: ownerID}, nil
	}
	return u, err
}

// DeleteClient removes a client that has no invoices.
func (e *Engine) DeleteClient(ctx context.Context, ownerID, clientID string) error {
	return e.store.Atomically(ctx, func(tx Tx) error {
		if _, err := tx.FindClientByID(ctx, ownerID, clientID); err != nil {
			return err
		}
		n, err := tx.CountInvoicesForClient(ctx, clientID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Newf("client %s has %d invoices", clientID, n).
				WithHint("Cannot delete client with existing invoices").
				Mark(apperr.ErrInvalidOperation)
		}
		return tx.DeleteClient(ctx, ownerID, clientID)
	})
}
