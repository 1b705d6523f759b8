package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albertcolmenero/invoicehub/models"
)

// ListProjects lists the owner's projects
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Success      200  {object}  Response{data=[]models.Project}
// @Router       /projects [get]
// @Security     BearerAuth
func (a *API) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.Store.ListProjects(r.Context(), OwnerID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetProject retrieves a single project by ID
// @Summary      Get project
// @Tags         projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  Response{data=models.Project}
// @Failure      404  {object}  Response{error=string}
// @Router       /projects/{id} [get]
// @Security     BearerAuth
func (a *API) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := a.Store.GetProject(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProject creates a new project
// @Summary      Create project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        project  body      models.ProjectInput  true  "Project contents"
// @Success      201      {object}  Response{data=models.Project}
// @Failure      400      {object}  Response{error=string}
// @Router       /projects [post]
// @Security     BearerAuth
func (a *API) CreateProject(w http.ResponseWriter, r *http.Request) {
	var input models.ProjectInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	p := models.Project{OwnerID: OwnerID(r.Context()), Name: input.Name}
	if err := a.Store.CreateProject(r.Context(), &p); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProject renames a project
// @Summary      Update project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Project ID"
// @Param        project  body      models.ProjectInput  true  "Updated project contents"
// @Success      200      {object}  Response{data=models.Project}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /projects/{id} [patch]
// @Security     BearerAuth
func (a *API) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var input models.ProjectInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	p := models.Project{ID: chi.URLParam(r, "id"), OwnerID: OwnerID(r.Context()), Name: input.Name}
	if err := a.Store.UpdateProject(r.Context(), &p); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject deletes a project
// @Summary      Delete project
// @Description  Remove a project. Its documents are kept without a project.
// @Tags         projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /projects/{id} [delete]
// @Security     BearerAuth
func (a *API) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteProject(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// ListProjectDocuments lists the documents filed under a project
// @Summary      List project documents
// @Tags         projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  Response{data=[]models.Document}
// @Failure      404  {object}  Response{error=string}
// @Router       /projects/{id}/documents [get]
// @Security     BearerAuth
func (a *API) ListProjectDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := a.Store.ListDocuments(r.Context(), OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}
