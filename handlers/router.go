package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/albertcolmenero/invoicehub/billing"
	"github.com/albertcolmenero/invoicehub/models"
	"github.com/albertcolmenero/invoicehub/render"
	"github.com/albertcolmenero/invoicehub/storage"
)

// Store is the record store the routes read and write. Both db.Store and
// memstore.Store satisfy it.
type Store interface {
	billing.Store

	ListClients(ctx context.Context, ownerID string) ([]models.Client, error)
	GetClient(ctx context.Context, ownerID, clientID string) (models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, c *models.Client) error

	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
	GetProject(ctx context.Context, ownerID, projectID string) (models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) error
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, ownerID, projectID string) error

	ListDocuments(ctx context.Context, ownerID, projectID string) ([]models.Document, error)
	GetDocument(ctx context.Context, ownerID, documentID string) (models.Document, error)
	CreateDocument(ctx context.Context, d *models.Document) error
	UpdateDocument(ctx context.Context, d *models.Document) error
	DeleteDocument(ctx context.Context, ownerID, documentID string) error

	ListInvoices(ctx context.Context, ownerID, clientID string) ([]models.Invoice, error)
	DeleteInvoice(ctx context.Context, ownerID, invoiceID string) error

	UpsertUser(ctx context.Context, u *models.User) error
}

// API holds the dependencies shared by all handlers.
type API struct {
	Store    Store
	Engine   *billing.Engine
	Renderer render.Renderer
	Uploader storage.Uploader
	// Auth guards every route except the public ones.
	Auth func(http.Handler) http.Handler
	Now  func() time.Time
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRouter mounts the API under /api/v1.
func NewRouter(a *API) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Capability links, no auth
		r.Get("/public/invoices/{token}", a.GetSharedInvoice)

		r.Group(func(r chi.Router) {
			if a.Auth != nil {
				r.Use(a.Auth)
			}

			// Clients
			r.Get("/clients", a.ListClients)
			r.Post("/clients", a.CreateClient)
			r.Get("/clients/{id}", a.GetClient)
			r.Patch("/clients/{id}", a.UpdateClient)
			r.Delete("/clients/{id}", a.DeleteClient)

			// Projects
			r.Get("/projects", a.ListProjects)
			r.Post("/projects", a.CreateProject)
			r.Get("/projects/{id}", a.GetProject)
			r.Patch("/projects/{id}", a.UpdateProject)
			r.Delete("/projects/{id}", a.DeleteProject)
			r.Get("/projects/{id}/documents", a.ListProjectDocuments)

			// Documents
			r.Get("/documents", a.ListDocuments)
			r.Post("/documents", a.CreateDocument)
			r.Get("/documents/{id}", a.GetDocument)
			r.Patch("/documents/{id}", a.UpdateDocument)
			r.Delete("/documents/{id}", a.DeleteDocument)

			// Invoices
			r.Get("/invoices", a.ListInvoices)
			r.Post("/invoices", a.CreateInvoice)
			r.Get("/invoices/{id}", a.GetInvoice)
			r.Patch("/invoices/{id}", a.UpdateInvoice)
			r.Delete("/invoices/{id}", a.DeleteInvoice)
			r.Post("/invoices/{id}/share", a.ShareInvoice)
			r.Get("/invoices/{id}/pdf", a.GetInvoicePDF)

			// Owner profile and logo
			r.Get("/settings", a.GetSettings)
			r.Patch("/settings", a.UpdateSettings)
			r.Post("/upload", a.Upload)

			// Dashboard
			r.Get("/dashboard", a.GetDashboard)
		})
	})

	slog.Debug("routes mounted", "prefix", "/api/v1")
	return r
}
