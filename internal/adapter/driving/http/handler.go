package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hearthcall/hearth/internal/adapter/driven/gateway/ws"
	"github.com/hearthcall/hearth/internal/config"
	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/hearthcall/hearth/internal/core/port"
	"github.com/hearthcall/hearth/internal/core/service"
)

type Handler struct {
	Calls     *service.CallService
	Directory *service.DirectoryService
	Router    *service.Router
	Hub       *ws.Hub
	Registry  port.ConnectionRegistry

	auth       config.Auth
	adminIPs   []string
	uploadsDir string
	staticDir  string
}

func NewHandler(calls *service.CallService, directory *service.DirectoryService, router *service.Router, hub *ws.Hub, registry port.ConnectionRegistry, cfg *config.Config) *Handler {
	return &Handler{
		Calls:      calls,
		Directory:  directory,
		Router:     router,
		Hub:        hub,
		Registry:   registry,
		auth:       cfg.Auth,
		adminIPs:   cfg.Admin.AllowedIPs,
		uploadsDir: cfg.Directory.UploadsDir,
		staticDir:  cfg.Directory.StaticDir,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	r.Get("/api/contacts", h.listContacts)
	r.Get("/api/rooms", h.listRooms)
	r.Post("/api/call/initiate", h.initiateCall)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.adminIPOnly)
		r.Use(h.requireAuth)
		r.Get("/contacts", h.listContacts)
		r.Post("/contacts", h.addContact)
		r.Put("/contacts/{id}", h.updateContact)
		r.Delete("/contacts/{id}", h.deleteContact)
		r.Get("/devices", h.listDevices)
	})

	r.Get("/ws", h.ServeWS)

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploadsDir))))
	r.Handle("/*", h.staticHandler())

	return r
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Calls.ActiveRooms())
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.Devices())
}

func (h *Handler) initiateCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContactID string `json:"contactId"`
		RoomID    string `json:"roomId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	joinURL, err := h.Calls.Initiate(r.Context(), req.ContactID, req.RoomID)
	switch {
	case errors.Is(err, domain.ErrContactNotFound):
		writeError(w, http.StatusNotFound, "contact not found")
		return
	case errors.Is(err, domain.ErrDuplicateRoom):
		writeError(w, http.StatusConflict, "room already exists, retry with a new id")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"roomId":  req.RoomID,
		"joinUrl": joinURL,
	})
}

// staticHandler serves the tablet UI. The join and login pages stay public
// so an invitation link works without a cookie.
func (h *Handler) staticHandler() http.Handler {
	fs := http.FileServer(http.Dir(h.staticDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/join.html", "/login.html":
			fs.ServeHTTP(w, r)
			return
		}
		if !h.authorized(r) {
			http.Redirect(w, r, "/login.html", http.StatusFound)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
