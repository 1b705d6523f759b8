// Package memstore is an in-memory record store. It backs the test suites and
// local runs with database.driver=memory.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/albertcolmenero/invoicehub/apperr"
	"github.com/albertcolmenero/invoicehub/billing"
	"github.com/albertcolmenero/invoicehub/models"
)

type state struct {
	users     map[string]models.User
	clients   map[string]models.Client
	projects  map[string]models.Project
	documents map[string]models.Document
	invoices  map[string]models.Invoice
	items     map[string][]models.InvoiceItem
	sequences map[string]int64
	// invoice ids in insertion order
	order []string
}

func newState() state {
	return state{
		users:     map[string]models.User{},
		clients:   map[string]models.Client{},
		projects:  map[string]models.Project{},
		documents: map[string]models.Document{},
		invoices:  map[string]models.Invoice{},
		items:     map[string][]models.InvoiceItem{},
		sequences: map[string]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	items := make(map[string][]models.InvoiceItem, len(s.items))
	for k, v := range s.items {
		items[k] = append([]models.InvoiceItem(nil), v...)
	}
	return state{
		users:     cloneMap(s.users),
		clients:   cloneMap(s.clients),
		projects:  cloneMap(s.projects),
		documents: cloneMap(s.documents),
		invoices:  cloneMap(s.invoices),
		items:     items,
		sequences: cloneMap(s.sequences),
		order:     append([]string(nil), s.order...),
	}
}

// Store is safe for concurrent use. Every call, and every Atomically block,
// holds one mutex.
type Store struct {
	mu       sync.Mutex
	data     state
	failures map[string]error
	now      func() time.Time
}

func New() *Store {
	return &Store{
		data:     newState(),
		failures: map[string]error{},
		now:      time.Now,
	}
}

// FailOn makes every later call of the named method return err. A nil err
// clears the failure.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// Atomically runs fn under the store lock and discards everything fn wrote
// when it returns an error.
func (s *Store) Atomically(ctx context.Context, fn func(tx billing.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(s.tx()); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) tx() *tx {
	return &tx{st: &s.data, failures: s.failures, now: s.now}
}

// locked runs fn under the store lock.
func locked[T any](s *Store, fn func(t *tx) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.tx())
}

func lockedErr(s *Store, fn func(t *tx) error) error {
	_, err := locked(s, func(t *tx) (struct{}, error) { return struct{}{}, fn(t) })
	return err
}

func notFound(kind, id string) error {
	return apperr.Newf("%s %s not found", kind, id).
		WithHintf("%s not found", kind).
		Mark(apperr.ErrNotFound)
}

// tx operates on the state without locking.
type tx struct {
	st       *state
	failures map[string]error
	now      func() time.Time
}

func (t *tx) check(method string) error {
	return t.failures[method]
}

func (t *tx) stamp(created, updated *time.Time) {
	now := t.now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// --- clients

func (t *tx) FindClientByID(ctx context.Context, ownerID, clientID string) (models.Client, error) {
	if err := t.check("FindClientByID"); err != nil {
		return models.Client{}, err
	}
	c, ok := t.st.clients[clientID]
	if !ok || c.OwnerID != ownerID {
		return models.Client{}, notFound("client", clientID)
	}
	return c, nil
}

func (t *tx) CountInvoicesForClient(ctx context.Context, clientID string) (int, error) {
	if err := t.check("CountInvoicesForClient"); err != nil {
		return 0, err
	}
	return lo.CountBy(lo.Values(t.st.invoices), func(inv models.Invoice) bool {
		return inv.ClientID == clientID
	}), nil
}

func (t *tx) DeleteClient(ctx context.Context, ownerID, clientID string) error {
	if err := t.check("DeleteClient"); err != nil {
		return err
	}
	if _, err := t.FindClientByID(ctx, ownerID, clientID); err != nil {
		return err
	}
	if n, _ := t.CountInvoicesForClient(ctx, clientID); n > 0 {
		return apperr.Newf("client %s is referenced by %d invoices", clientID, n).
			WithHint("Cannot delete client with existing invoices").
			Mark(apperr.ErrInvalidOperation)
	}
	delete(t.st.clients, clientID)
	return nil
}

// --- invoices

func (t *tx) loadInvoice(inv models.Invoice) models.Invoice {
	inv.Items = append([]models.InvoiceItem{}, t.st.items[inv.ID]...)
	sort.SliceStable(inv.Items, func(i, j int) bool { return inv.Items[i].Position < inv.Items[j].Position })
	if c, ok := t.st.clients[inv.ClientID]; ok {
		inv.Client = &c
	}
	return inv
}

func (t *tx) GetInvoice(ctx context.Context, ownerID, invoiceID string) (models.Invoice, error) {
	if err := t.check("GetInvoice"); err != nil {
		return models.Invoice{}, err
	}
	inv, ok := t.st.invoices[invoiceID]
	if !ok || inv.OwnerID != ownerID {
		return models.Invoice{}, notFound("invoice", invoiceID)
	}
	return t.loadInvoice(inv), nil
}

func (t *tx) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if err := t.check("CreateInvoice"); err != nil {
		return err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	for _, other := range t.st.invoices {
		if other.OwnerID == inv.OwnerID && other.InvoiceNumber == inv.InvoiceNumber {
			return apperr.Newf("invoice number %s already used", inv.InvoiceNumber).
				WithHint("invoice number already in use").
				Mark(apperr.ErrConflict)
		}
	}
	c, ok := t.st.clients[inv.ClientID]
	if !ok || c.OwnerID != inv.OwnerID {
		return notFound("client", inv.ClientID)
	}
	t.stamp(&inv.CreatedAt, &inv.UpdatedAt)

	header := *inv
	header.Items, header.Client = nil, nil
	t.st.invoices[inv.ID] = header
	t.st.order = append(t.st.order, inv.ID)
	return t.CreateInvoiceItems(ctx, inv.ID, inv.Items)
}

func (t *tx) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	if err := t.check("UpdateInvoice"); err != nil {
		return err
	}
	cur, ok := t.st.invoices[inv.ID]
	if !ok || cur.OwnerID != inv.OwnerID {
		return notFound("invoice", inv.ID)
	}
	cur.ClientID = inv.ClientID
	cur.InvoiceDate = inv.InvoiceDate
	cur.DueDate = inv.DueDate
	cur.Status = inv.Status
	cur.PaymentTerms = inv.PaymentTerms
	cur.Notes = inv.Notes
	cur.Subtotal = inv.Subtotal
	cur.TaxAmount = inv.TaxAmount
	cur.Total = inv.Total
	cur.UpdatedAt = t.now().UTC()
	if !inv.UpdatedAt.IsZero() {
		cur.UpdatedAt = inv.UpdatedAt
	}
	t.st.invoices[inv.ID] = cur
	return nil
}

func (t *tx) DeleteInvoiceItems(ctx context.Context, invoiceID string) error {
	if err := t.check("DeleteInvoiceItems"); err != nil {
		return err
	}
	delete(t.st.items, invoiceID)
	return nil
}

func (t *tx) CreateInvoiceItems(ctx context.Context, invoiceID string, items []models.InvoiceItem) error {
	if err := t.check("CreateInvoiceItems"); err != nil {
		return err
	}
	if _, ok := t.st.invoices[invoiceID]; !ok {
		return notFound("invoice", invoiceID)
	}
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.InvoiceID = invoiceID
		t.st.items[invoiceID] = append(t.st.items[invoiceID], it)
	}
	return nil
}

func (t *tx) SetShareableLink(ctx context.Context, ownerID, invoiceID, token string) (string, error) {
	if err := t.check("SetShareableLink"); err != nil {
		return "", err
	}
	inv, ok := t.st.invoices[invoiceID]
	if !ok || inv.OwnerID != ownerID {
		return "", notFound("invoice", invoiceID)
	}
	if existing := lo.FromPtr(inv.ShareableLink); existing != "" {
		return existing, nil
	}
	inv.ShareableLink = lo.ToPtr(token)
	t.st.invoices[invoiceID] = inv
	return token, nil
}

// --- Tx methods called outside a transaction

func (s *Store) FindClientByID(ctx context.Context, ownerID, clientID string) (models.Client, error) {
	return locked(s, func(t *tx) (models.Client, error) { return t.FindClientByID(ctx, ownerID, clientID) })
}

func (s *Store) CountInvoicesForClient(ctx context.Context, clientID string) (int, error) {
	return locked(s, func(t *tx) (int, error) { return t.CountInvoicesForClient(ctx, clientID) })
}

func (s *Store) DeleteClient(ctx context.Context, ownerID, clientID string) error {
	return lockedErr(s, func(t *tx) error { return t.DeleteClient(ctx, ownerID, clientID) })
}

func (s *Store) GetInvoice(ctx context.Context, ownerID, invoiceID string) (models.Invoice, error) {
	return locked(s, func(t *tx) (models.Invoice, error) { return t.GetInvoice(ctx, ownerID, invoiceID) })
}

func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.Atomically(ctx, func(tx billing.Tx) error { return tx.CreateInvoice(ctx, inv) })
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	return lockedErr(s, func(t *tx) error { return t.UpdateInvoice(ctx, inv) })
}

func (s *Store) DeleteInvoiceItems(ctx context.Context, invoiceID string) error {
	return lockedErr(s, func(t *tx) error { return t.DeleteInvoiceItems(ctx, invoiceID) })
}

func (s *Store) CreateInvoiceItems(ctx context.Context, invoiceID string, items []models.InvoiceItem) error {
	return s.Atomically(ctx, func(tx billing.Tx) error { return tx.CreateInvoiceItems(ctx, invoiceID, items) })
}

func (s *Store) SetShareableLink(ctx context.Context, ownerID, invoiceID, token string) (string, error) {
	return locked(s, func(t *tx) (string, error) { return t.SetShareableLink(ctx, ownerID, invoiceID, token) })
}

// --- numbering

func (s *Store) IncrementInvoiceSequence(ctx context.Context, scope string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["IncrementInvoiceSequence"]; err != nil {
		return 0, false, err
	}
	v, ok := s.data.sequences[scope]
	if !ok {
		return 0, false, nil
	}
	v++
	s.data.sequences[scope] = v
	return v, true, nil
}

func (s *Store) InitInvoiceSequence(ctx context.Context, scope string, floor int64) (int64, error) {
	return locked(s, func(t *tx) (int64, error) {
		if err := t.check("InitInvoiceSequence"); err != nil {
			return 0, err
		}
		v, ok := t.st.sequences[scope]
		if !ok {
			v = floor
		}
		v++
		t.st.sequences[scope] = v
		return v, nil
	})
}

func (s *Store) FindMostRecentInvoice(ctx context.Context, ownerID string) (*models.Invoice, error) {
	return locked(s, func(t *tx) (*models.Invoice, error) {
		if err := t.check("FindMostRecentInvoice"); err != nil {
			return nil, err
		}
		var latest *models.Invoice
		for _, id := range t.st.order {
			inv := t.st.invoices[id]
			if ownerID != "" && inv.OwnerID != ownerID {
				continue
			}
			if latest == nil || !inv.CreatedAt.Before(latest.CreatedAt) {
				latest = &inv
			}
		}
		return latest, nil
	})
}

// --- public path

func (s *Store) FindInvoiceByShareToken(ctx context.Context, token string) (models.Invoice, error) {
	return locked(s, func(t *tx) (models.Invoice, error) {
		if err := t.check("FindInvoiceByShareToken"); err != nil {
			return models.Invoice{}, err
		}
		for _, inv := range t.st.invoices {
			if token != "" && lo.FromPtr(inv.ShareableLink) == token {
				return t.loadInvoice(inv), nil
			}
		}
		return models.Invoice{}, apperr.New("unknown share token").
			WithHint("invoice not found").
			Mark(apperr.ErrNotFound)
	})
}

func (s *Store) IncrementViewCount(ctx context.Context, invoiceID string, at time.Time) error {
	return lockedErr(s, func(t *tx) error {
		if err := t.check("IncrementViewCount"); err != nil {
			return err
		}
		inv, ok := t.st.invoices[invoiceID]
		if !ok {
			return notFound("invoice", invoiceID)
		}
		inv.ViewCount++
		inv.LastViewed = &at
		t.st.invoices[invoiceID] = inv
		return nil
	})
}

// --- users

func (s *Store) GetUser(ctx context.Context, ownerID string) (models.User, error) {
	return locked(s, func(t *tx) (models.User, error) {
		if err := t.check("GetUser"); err != nil {
			return models.User{}, err
		}
		u, ok := t.st.users[ownerID]
		if !ok {
			return models.User{}, notFound("user", ownerID)
		}
		return u, nil
	})
}

func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	return lockedErr(s, func(t *tx) error {
		if err := t.check("UpsertUser"); err != nil {
			return err
		}
		if cur, ok := t.st.users[u.ID]; ok {
			u.CreatedAt = cur.CreatedAt
		}
		t.stamp(&u.CreatedAt, &u.UpdatedAt)
		t.st.users[u.ID] = *u
		return nil
	})
}

// --- client CRUD

func (s *Store) ListClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	return locked(s, func(t *tx) ([]models.Client, error) {
		clients := lo.Filter(lo.Values(t.st.clients), func(c models.Client, _ int) bool { return c.OwnerID == ownerID })
		sort.Slice(clients, func(i, j int) bool { return strings.ToLower(clients[i].Name) < strings.ToLower(clients[j].Name) })
		return clients, nil
	})
}

func (s *Store) GetClient(ctx context.Context, ownerID, clientID string) (models.Client, error) {
	return locked(s, func(t *tx) (models.Client, error) {
		c, err := t.FindClientByID(ctx, ownerID, clientID)
		if err != nil {
			return c, err
		}
		c.Invoices = t.listInvoices(ownerID, clientID)
		for i := range c.Invoices {
			c.Invoices[i].Client = nil
		}
		return c, nil
	})
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	return lockedErr(s, func(t *tx) error {
		if err := t.check("CreateClient"); err != nil {
			return err
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		t.stamp(&c.CreatedAt, &c.UpdatedAt)
		t.st.clients[c.ID] = *c
		return nil
	})
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	return lockedErr(s, func(t *tx) error {
		cur, err := t.FindClientByID(ctx, c.OwnerID, c.ID)
		if err != nil {
			return err
		}
		c.CreatedAt = cur.CreatedAt
		t.stamp(&c.CreatedAt, &c.UpdatedAt)
		c.Invoices = nil
		t.st.clients[c.ID] = *c
		return nil
	})
}

// --- project CRUD

func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	return locked(s, func(t *tx) ([]models.Project, error) {
		projects := lo.Filter(lo.Values(t.st.projects), func(p models.Project, _ int) bool { return p.OwnerID == ownerID })
		sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
		return projects, nil
	})
}

func (t *tx) findProject(ownerID, projectID string) (models.Project, error) {
	p, ok := t.st.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return models.Project{}, notFound("project", projectID)
	}
	return p, nil
}

func (s *Store) GetProject(ctx context.Context, ownerID, projectID string) (models.Project, error) {
	return locked(s, func(t *tx) (models.Project, error) { return t.findProject(ownerID, projectID) })
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	return lockedErr(s, func(t *tx) error {
		if err := t.check("CreateProject"); err != nil {
			return err
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		t.stamp(&p.CreatedAt, &p.UpdatedAt)
		t.st.projects[p.ID] = *p
		return nil
	})
}

func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	return lockedErr(s, func(t *tx) error {
		cur, err := t.findProject(p.OwnerID, p.ID)
		if err != nil {
			return err
		}
		p.CreatedAt = cur.CreatedAt
		t.stamp(&p.CreatedAt, &p.UpdatedAt)
		t.st.projects[p.ID] = *p
		return nil
	})
}

// DeleteProject removes the project and detaches its documents.
func (s *Store) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	return lockedErr(s, func(t *tx) error {
		if _, err := t.findProject(ownerID, projectID); err != nil {
			return err
		}
		for id, d := range t.st.documents {
			if lo.FromPtr(d.ProjectID) == projectID {
				d.ProjectID = nil
				t.st.documents[id] = d
			}
		}
		delete(t.st.projects, projectID)
		return nil
	})
}

// --- document CRUD

func (s *Store) ListDocuments(ctx context.Context, ownerID, projectID string) ([]models.Document, error) {
	return locked(s, func(t *tx) ([]models.Document, error) {
		if projectID != "" {
			if _, err := t.findProject(ownerID, projectID); err != nil {
				return nil, err
			}
		}
		docs := lo.Filter(lo.Values(t.st.documents), func(d models.Document, _ int) bool {
			return d.OwnerID == ownerID && (projectID == "" || lo.FromPtr(d.ProjectID) == projectID)
		})
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
		return docs, nil
	})
}

func (t *tx) findDocument(ownerID, documentID string) (models.Document, error) {
	d, ok := t.st.documents[documentID]
	if !ok || d.OwnerID != ownerID {
		return models.Document{}, notFound("document", documentID)
	}
	return d, nil
}

func (s *Store) GetDocument(ctx context.Context, ownerID, documentID string) (models.Document, error) {
	return locked(s, func(t *tx) (models.Document, error) { return t.findDocument(ownerID, documentID) })
}

func (s *Store) CreateDocument(ctx context.Context, d *models.Document) error {
	return lockedErr(s, func(t *tx) error {
		if err := t.check("CreateDocument"); err != nil {
			return err
		}
		if d.ProjectID != nil {
			if _, err := t.findProject(d.OwnerID, *d.ProjectID); err != nil {
				return err
			}
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		t.stamp(&d.CreatedAt, &d.UpdatedAt)
		t.st.documents[d.ID] = *d
		return nil
	})
}

func (s *Store) UpdateDocument(ctx context.Context, d *models.Document) error {
	return lockedErr(s, func(t *tx) error {
		cur, err := t.findDocument(d.OwnerID, d.ID)
		if err != nil {
			return err
		}
		if d.ProjectID != nil {
			if _, err := t.findProject(d.OwnerID, *d.ProjectID); err != nil {
				return err
			}
		}
		d.CreatedAt = cur.CreatedAt
		t.stamp(&d.CreatedAt, &d.UpdatedAt)
		t.st.documents[d.ID] = *d
		return nil
	})
}

func (s *Store) DeleteDocument(ctx context.Context, ownerID, documentID string) error {
	return lockedErr(s, func(t *tx) error {
		if _, err := t.findDocument(ownerID, documentID); err != nil {
			return err
		}
		delete(t.st.documents, documentID)
		return nil
	})
}

// --- invoice reads and delete

func (t *tx) listInvoices(ownerID, clientID string) []models.Invoice {
	out := []models.Invoice{}
	for i := len(t.st.order) - 1; i >= 0; i-- {
		inv := t.st.invoices[t.st.order[i]]
		if inv.OwnerID != ownerID || (clientID != "" && inv.ClientID != clientID) {
			continue
		}
		if c, ok := t.st.clients[inv.ClientID]; ok {
			inv.Client = &c
		}
		inv.Items = []models.InvoiceItem{}
		out = append(out, inv)
	}
	return out
}

// ListInvoices returns the owner's invoices newest first with their client,
// optionally only those of clientID. Items are not loaded.
func (s *Store) ListInvoices(ctx context.Context, ownerID, clientID string) ([]models.Invoice, error) {
	return locked(s, func(t *tx) ([]models.Invoice, error) {
		if err := t.check("ListInvoices"); err != nil {
			return nil, err
		}
		return t.listInvoices(ownerID, clientID), nil
	})
}

func (s *Store) DeleteInvoice(ctx context.Context, ownerID, invoiceID string) error {
	return lockedErr(s, func(t *tx) error {
		inv, ok := t.st.invoices[invoiceID]
		if !ok || inv.OwnerID != ownerID {
			return notFound("invoice", invoiceID)
		}
		delete(t.st.invoices, invoiceID)
		delete(t.st.items, invoiceID)
		t.st.order = lo.Without(t.st.order, invoiceID)
		return nil
	})
}

var _ billing.Store = (*Store)(nil)
