package handlers

import (
	"io"
	"net/http"

	"github.com/albertcolmenero/invoicehub/models"
	"github.com/albertcolmenero/invoicehub/storage"
)

// GetSettings returns the owner profile
// @Summary      Get settings
// @Description  Get the letterhead printed on the owner's invoices. Empty until first saved.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  Response{data=models.User}
// @Router       /settings [get]
// @Security     BearerAuth
func (a *API) GetSettings(w http.ResponseWriter, r *http.Request) {
	u, err := a.Engine.OwnerProfile(r.Context(), OwnerID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateSettings saves the owner profile
// @Summary      Update settings
// @Description  Overwrite the letterhead fields of the owner profile.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        settings  body      models.SettingsInput  true  "Profile contents"
// @Success      200       {object}  Response{data=models.User}
// @Failure      400       {object}  Response{error=string}
// @Router       /settings [patch]
// @Security     BearerAuth
func (a *API) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var input models.SettingsInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	u := models.User{ID: OwnerID(r.Context())}
	input.Apply(&u)
	if err := a.Store.UpsertUser(r.Context(), &u); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Upload stores a logo image
// @Summary      Upload logo
// @Description  Store an image (at most 5 MB) and return its URL for use as settings.logo.
// @Tags         settings
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Image file"
// @Success      200   {object}  Response{data=map[string]string}
// @Failure      400   {object}  Response{error=string}
// @Router       /upload [post]
// @Security     BearerAuth
func (a *API) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxLogoBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxLogoBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}
	url, err := a.Uploader.Upload(r.Context(), OwnerID(r.Context()), header.Filename, data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
