package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albertcolmenero/invoicehub/models"
)

// ListClients lists the owner's clients
// @Summary      List clients
// @Description  Get all clients of the authenticated owner, ordered by name.
// @Tags         clients
// @Produce      json
// @Success      200  {object}  Response{data=[]models.Client}
// @Router       /clients [get]
// @Security     BearerAuth
func (a *API) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := a.Store.ListClients(r.Context(), OwnerID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// GetClient retrieves a single client by ID
// @Summary      Get client
// @Description  Get a client together with its invoices.
// @Tags         clients
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  Response{data=models.Client}
// @Failure      404  {object}  Response{error=string}
// @Router       /clients/{id} [get]
// @Security     BearerAuth
func (a *API) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := a.Store.GetClient(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateClient creates a new client
// @Summary      Create client
// @Description  Create a new client. Name and email are required.
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        client  body      models.ClientInput  true  "Client contents"
// @Success      201     {object}  Response{data=models.Client}
// @Failure      400     {object}  Response{error=string}
// @Router       /clients [post]
// @Security     BearerAuth
func (a *API) CreateClient(w http.ResponseWriter, r *http.Request) {
	var input models.ClientInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	c := models.Client{OwnerID: OwnerID(r.Context())}
	input.Apply(&c)
	if err := a.Store.CreateClient(r.Context(), &c); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateClient updates an existing client
// @Summary      Update client
// @Description  Replace the details of an existing client.
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id      path      string              true  "Client ID"
// @Param        client  body      models.ClientInput  true  "Updated client contents"
// @Success      200     {object}  Response{data=models.Client}
// @Failure      400     {object}  Response{error=string}
// @Failure      404     {object}  Response{error=string}
// @Router       /clients/{id} [patch]
// @Security     BearerAuth
func (a *API) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var input models.ClientInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	c := models.Client{ID: chi.URLParam(r, "id"), OwnerID: OwnerID(r.Context())}
	input.Apply(&c)
	if err := a.Store.UpdateClient(r.Context(), &c); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteClient deletes a client
// @Summary      Delete client
// @Description  Remove a client. Clients with invoices cannot be deleted.
// @Tags         clients
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      400  {object}  Response{error=string}
// @Failure      404  {object}  Response{error=string}
// @Router       /clients/{id} [delete]
// @Security     BearerAuth
func (a *API) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := a.Engine.DeleteClient(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
