package db_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/albertcolmenero/invoicehub/apperr"
	"github.com/albertcolmenero/invoicehub/billing"
	"github.com/albertcolmenero/invoicehub/db"
	"github.com/albertcolmenero/invoicehub/models"
)

// StoreSuite runs against the Postgres database in TEST_DATABASE_URL. Each
// test works under fresh owner ids so runs can share one database.
type StoreSuite struct {
	suite.Suite
	ctx    context.Context
	sqlDB  *sql.DB
	store  *db.Store
	engine *billing.Engine
	owner  string
	client models.Client
}

func TestStore(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.sqlDB, err = db.Open(s.ctx, db.Config{URL: os.Getenv("TEST_DATABASE_URL"), MaxOpenConns: 5})
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate(s.ctx, s.sqlDB))
	s.Require().NoError(db.Migrate(s.ctx, s.sqlDB), "migrations are idempotent")
	s.store = db.NewStore(s.sqlDB)
}

func (s *StoreSuite) TearDownSuite() {
	s.sqlDB.Close()
}

func (s *StoreSuite) SetupTest() {
	s.owner = "test-" + uuid.NewString()
	s.engine = billing.NewEngine(s.store)
	s.client = models.Client{OwnerID: s.owner, Name: "Acme", Email: "ap@acme.test", City: lo.ToPtr("Springfield")}
	s.Require().NoError(s.store.CreateClient(s.ctx, &s.client))
}

func (s *StoreSuite) input() models.InvoiceInput {
	today := models.NewDate(time.Now())
	d := decimal.RequireFromString
	return models.InvoiceInput{
		ClientID:    s.client.ID,
		InvoiceDate: today,
		DueDate:     today,
		Items: []models.LineItem{
			{Description: "Design", Quantity: d("2"), UnitPrice: d("100"), TaxPercent: d("10")},
			{Description: "Hosting", Quantity: d("1"), UnitPrice: d("50"), TaxPercent: d("0")},
		},
	}
}

func (s *StoreSuite) TestCreateAndRead() {
	inv, err := s.engine.CreateInvoice(s.ctx, s.owner, s.input())
	s.Require().NoError(err)
	s.Equal("INV-000001", inv.InvoiceNumber)
	s.True(inv.Total.Equal(decimal.NewFromInt(270)))
	s.Require().Len(inv.Items, 2)
	s.Equal("Design", inv.Items[0].Description)
	s.Require().NotNil(inv.Client)
	s.Equal("Springfield", lo.FromPtr(inv.Client.City))

	next, err := s.engine.CreateInvoice(s.ctx, s.owner, s.input())
	s.Require().NoError(err)
	s.Equal("INV-000002", next.InvoiceNumber)

	listed, err := s.store.ListInvoices(s.ctx, s.owner, "")
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(next.ID, listed[0].ID)
	s.NotNil(listed[0].Client)

	c, err := s.store.GetClient(s.ctx, s.owner, s.client.ID)
	s.Require().NoError(err)
	s.Len(c.Invoices, 2)
}

func (s *StoreSuite) TestDuplicateNumberIsConflict() {
	inv, err := s.engine.CreateInvoice(s.ctx, s.owner, s.input())
	s.Require().NoError(err)

	dup := models.Invoice{
		OwnerID:       s.owner,
		ClientID:      s.client.ID,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Status:        models.StatusDraft,
	}
	err = s.store.CreateInvoice(s.ctx, &dup)
	s.True(apperr.IsConflict(err), "%v", err)
}

func (s *StoreSuite) TestCollisionRetry() {
	_, err := s.store.InitInvoiceSequence(s.ctx, s.owner, 0)
	s.Require().NoError(err)
	seeded := models.Invoice{
		OwnerID:       s.owner,
		ClientID:      s.client.ID,
		InvoiceNumber: "INV-000002",
		InvoiceDate:   models.NewDate(time.Now()),
		DueDate:       models.NewDate(time.Now()),
		Status:        models.StatusSent,
	}
	s.Require().NoError(s.store.CreateInvoice(s.ctx, &seeded))

	inv, err := s.engine.CreateInvoice(s.ctx, s.owner, s.input())
	s.Require().NoError(err)
	s.Equal("INV-000003", inv.InvoiceNumber)
}

func (s *StoreSuite) TestEditIsAtomic() {
	inv, err := s.engine.CreateInvoice(s.ctx, s.owner, s.input())
	s.Require().NoError(err)

	other := models.Client{OwnerID: "someone-else-" + uuid.NewString(), Name: "Other", Email: "o@other.test"}
	s.Require().NoError(s.store.CreateClient(s.ctx, &other))

	_, err = s.engine.UpdateInvoice(s.ctx, s.owner, inv.ID, models.InvoiceUpdateInput{
		ClientID: &other.ID,
		Items:    []models.LineItem{{Description: "X", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	})
	s.True(apperr.IsNotFound(err))

	after, err := s.store.GetInvoice(s.ctx, s.owner, inv.ID)
	s.Require().NoError(err)
	s.Len(after.Items, 2)
	s.True(billing.Of(inv).Equal(billing.Of(after)))

	updated, err := s.engine.ReplaceItemsAndRecompute(s.ctx, s.owner, inv.ID, []models.LineItem{
		{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000), TaxPercent: decimal.NewFromInt(5)},
	})
	s.Require().NoError(err)
	s.True(updated.Total.Equal(decimal.NewFromInt(1050)))
	s.Len(updated.Items, 1)
}

func (s *StoreSuite) TestShareAndView() {
	inv, err := s.engine.CreateInvoice(s.ctx, s.owner, s.input())
	s.Require().NoError(err)

	token, err := s.engine.EnsureShareableLink(s.ctx, s.owner, inv.ID)
	s.Require().NoError(err)
	again, err := s.engine.EnsureShareableLink(s.ctx, s.owner, inv.ID)
	s.Require().NoError(err)
	s.Equal(token, again)

	viewed, owner, err := s.engine.ViewShared(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(1, viewed.ViewCount)
	s.Equal(s.owner, owner.ID)

	stored, err := s.store.GetInvoice(s.ctx, s.owner, inv.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.ViewCount)
	s.NotNil(stored.LastViewed)
}

func (s *StoreSuite) TestDeleteClientGuard() {
	_, err := s.engine.CreateInvoice(s.ctx, s.owner, s.input())
	s.Require().NoError(err)

	err = s.engine.DeleteClient(s.ctx, s.owner, s.client.ID)
	s.True(apperr.IsInvalidOperation(err))
}

func (s *StoreSuite) TestProfileAndDocuments() {
	u := models.User{ID: s.owner, CompanyName: lo.ToPtr("Studio")}
	s.Require().NoError(s.store.UpsertUser(s.ctx, &u))
	got, err := s.engine.OwnerProfile(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal("Studio", lo.FromPtr(got.CompanyName))

	p := models.Project{OwnerID: s.owner, Name: "Website"}
	s.Require().NoError(s.store.CreateProject(s.ctx, &p))
	d := models.Document{OwnerID: s.owner, Name: "Brief", ProjectID: &p.ID}
	s.Require().NoError(s.store.CreateDocument(s.ctx, &d))

	s.Require().NoError(s.store.DeleteProject(s.ctx, s.owner, p.ID))
	doc, err := s.store.GetDocument(s.ctx, s.owner, d.ID)
	s.Require().NoError(err)
	s.Nil(doc.ProjectID)
}
