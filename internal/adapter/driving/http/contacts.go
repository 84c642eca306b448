package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

const maxPhotoSize = 5 << 20 // 5MB

var photoExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Directory.List())
}

func (h *Handler) addContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+(1<<20))
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	contact := domain.Contact{
		Name:   r.FormValue("name"),
		Phone:  r.FormValue("phone"),
		Email:  r.FormValue("email"),
		Avatar: r.FormValue("avatar"),
	}

	photoURL, err := h.savePhoto(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	contact.PhotoURL = photoURL

	added, err := h.Directory.Add(contact)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Info().Str("contact_id", added.ID).Str("name", added.Name).Msg("Contact added")
	writeJSON(w, http.StatusOK, added)
}

func (h *Handler) updateContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	current, err := h.Directory.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+(1<<20))
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	if v := r.FormValue("name"); v != "" {
		current.Name = v
	}
	if v := r.FormValue("phone"); v != "" {
		current.Phone = v
	}
	if v, ok := formValue(r, "email"); ok {
		current.Email = v
	}
	if v := r.FormValue("avatar"); v != "" {
		current.Avatar = v
	}

	photoURL, err := h.savePhoto(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if photoURL != "" {
		h.removePhoto(current.PhotoURL)
		current.PhotoURL = photoURL
	}

	updated, err := h.Directory.Update(current)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Info().Str("contact_id", updated.ID).Msg("Contact updated")
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteContact(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Directory.Delete(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}
	h.removePhoto(removed.PhotoURL)
	log.Info().Str("contact_id", removed.ID).Msg("Contact deleted")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// savePhoto stores an uploaded photo and returns its public URL. Returns
// "" when the form carries no photo.
func (h *Handler) savePhoto(r *http.Request) (string, error) {
	photo, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer photo.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !photoExts[ext] {
		return "", errors.New("only image files are allowed")
	}

	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		return "", err
	}
	name := "contact-" + strings.ToLower(ulid.Make().String()) + ext
	if err := writeFile(filepath.Join(h.uploadsDir, name), photo); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

func (h *Handler) removePhoto(photoURL string) {
	if photoURL == "" {
		return
	}
	name := filepath.Base(photoURL)
	if err := os.Remove(filepath.Join(h.uploadsDir, name)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("photo", name).Msg("Failed to remove photo")
	}
}

func writeFile(path string, src multipart.File) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// formValue distinguishes an absent field from an explicitly empty one, so
// an update can clear the email.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
