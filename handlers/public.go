package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetSharedInvoice renders an invoice reached through its shareable link
// @Summary      View shared invoice
// @Description  Render the invoice behind a capability token as PDF. Each successful view is counted.
// @Tags         public
// @Produce      application/pdf
// @Param        token  path      string  true  "Share token"
// @Success      200    {file}    binary
// @Failure      404    {object}  Response{error=string}
// @Router       /public/invoices/{token} [get]
func (a *API) GetSharedInvoice(w http.ResponseWriter, r *http.Request) {
	inv, owner, err := a.Engine.ViewShared(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.writePDF(w, r, inv, owner, "inline")
}
