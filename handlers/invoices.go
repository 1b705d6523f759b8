package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albertcolmenero/invoicehub/models"
	"github.com/albertcolmenero/invoicehub/render"
)

type shareLink struct {
	Token string `json:"shareable_link"`
	URL   string `json:"url"`
}

// ListInvoices lists the owner's invoices
// @Summary      List invoices
// @Description  Get the owner's invoices, newest first, each with its client.
// @Tags         invoices
// @Produce      json
// @Param        client_id  query     string  false  "Filter by client"
// @Success      200        {object}  Response{data=[]models.Invoice}
// @Router       /invoices [get]
// @Security     BearerAuth
func (a *API) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := a.Store.ListInvoices(r.Context(), OwnerID(r.Context()), r.URL.Query().Get("client_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice retrieves a single invoice by ID
// @Summary      Get invoice
// @Description  Get an invoice with its line items and client.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id} [get]
// @Security     BearerAuth
func (a *API) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := a.Store.GetInvoice(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// CreateInvoice creates a new invoice
// @Summary      Create invoice
// @Description  Create a DRAFT invoice. The number and totals are assigned by the server.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        invoice  body      models.InvoiceInput  true  "Invoice contents"
// @Success      201      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Failure      409      {object}  Response{error=string}
// @Router       /invoices [post]
// @Security     BearerAuth
func (a *API) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var input models.InvoiceInput
	if !decodeJSON(w, r, &input) {
		return
	}
	inv, err := a.Engine.CreateInvoice(r.Context(), OwnerID(r.Context()), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// UpdateInvoice edits an invoice
// @Summary      Update invoice
// @Description  Patch header fields and replace the full item list. Totals are recomputed.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Invoice ID"
// @Param        invoice  body      models.InvoiceUpdateInput  true  "Updated invoice contents"
// @Success      200      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /invoices/{id} [patch]
// @Security     BearerAuth
func (a *API) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var input models.InvoiceUpdateInput
	if !decodeJSON(w, r, &input) {
		return
	}
	inv, err := a.Engine.UpdateInvoice(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// DeleteInvoice deletes an invoice
// @Summary      Delete invoice
// @Description  Remove an invoice and its line items.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id} [delete]
// @Security     BearerAuth
func (a *API) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteInvoice(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// ShareInvoice issues the invoice's shareable link
// @Summary      Share invoice
// @Description  Return the invoice's capability token, creating it on first call.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=shareLink}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/share [post]
// @Security     BearerAuth
func (a *API) ShareInvoice(w http.ResponseWriter, r *http.Request) {
	token, err := a.Engine.EnsureShareableLink(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shareLink{Token: token, URL: "/api/v1/public/invoices/" + token})
}

// GetInvoicePDF downloads an invoice as PDF
// @Summary      Download invoice PDF
// @Description  Render the invoice under the owner's letterhead.
// @Tags         invoices
// @Produce      application/pdf
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/pdf [get]
// @Security     BearerAuth
func (a *API) GetInvoicePDF(w http.ResponseWriter, r *http.Request) {
	owner := OwnerID(r.Context())
	inv, err := a.Store.GetInvoice(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	profile, err := a.Engine.OwnerProfile(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.writePDF(w, r, inv, profile, "attachment")
}

func (a *API) writePDF(w http.ResponseWriter, r *http.Request, inv models.Invoice, owner models.User, disposition string) {
	doc, err := a.Renderer.RenderInvoice(r.Context(), render.NewInput(inv, owner))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="invoice-%s.pdf"`, disposition, inv.InvoiceNumber))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}
