package handlers

import (
	"net/http"

	"github.com/albertcolmenero/invoicehub/billing"
)

// GetDashboard retrieves dashboard summary statistics
// @Summary      Get dashboard
// @Description  Revenue, outstanding payments, invoices by status, monthly revenue, recent invoices and top clients.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Response{data=billing.Summary}
// @Router       /dashboard [get]
// @Security     BearerAuth
func (a *API) GetDashboard(w http.ResponseWriter, r *http.Request) {
	owner := OwnerID(r.Context())
	invoices, err := a.Store.ListInvoices(r.Context(), owner, "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	clients, err := a.Store.ListClients(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, billing.Summarize(invoices, clients, a.now()))
}
