package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albertcolmenero/invoicehub/models"
)

// ListDocuments lists the owner's documents
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Param        project_id  query     string  false  "Filter by project"
// @Success      200         {object}  Response{data=[]models.Document}
// @Router       /documents [get]
// @Security     BearerAuth
func (a *API) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := a.Store.ListDocuments(r.Context(), OwnerID(r.Context()), r.URL.Query().Get("project_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// GetDocument retrieves a single document by ID
// @Summary      Get document
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  Response{data=models.Document}
// @Failure      404  {object}  Response{error=string}
// @Router       /documents/{id} [get]
// @Security     BearerAuth
func (a *API) GetDocument(w http.ResponseWriter, r *http.Request) {
	d, err := a.Store.GetDocument(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDocument creates a new document
// @Summary      Create document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        document  body      models.DocumentInput  true  "Document contents"
// @Success      201       {object}  Response{data=models.Document}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /documents [post]
// @Security     BearerAuth
func (a *API) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	d := models.Document{OwnerID: OwnerID(r.Context())}
	input.Apply(&d)
	if err := a.Store.CreateDocument(r.Context(), &d); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// UpdateDocument updates an existing document
// @Summary      Update document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id        path      string                true  "Document ID"
// @Param        document  body      models.DocumentInput  true  "Updated document contents"
// @Success      200       {object}  Response{data=models.Document}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /documents/{id} [patch]
// @Security     BearerAuth
func (a *API) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	d := models.Document{ID: chi.URLParam(r, "id"), OwnerID: OwnerID(r.Context())}
	input.Apply(&d)
	if err := a.Store.UpdateDocument(r.Context(), &d); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDocument deletes a document
// @Summary      Delete document
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /documents/{id} [delete]
// @Security     BearerAuth
func (a *API) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteDocument(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
