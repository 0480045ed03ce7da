package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/converse/internal/auth"
	"github.com/sakif/converse/internal/service"
)

// ContactHandler serves the user directory: full listing and search.
type ContactHandler struct {
	svc    *service.ContactService
	logger *slog.Logger
}

func NewContactHandler(svc *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, logger: logger}
}

type searchRequest struct {
	SearchTerm string `json:"searchTerm"`
}

// HandleSearch returns users matching the search term, excluding the caller.
//
// HTTP: POST /contacts/search (auth required)
func (h *ContactHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "searchTerm is required."})
		return
	}

	contacts, err := h.svc.Search(r.Context(), userID, req.SearchTerm)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// HandleAll returns every user except the caller.
//
// HTTP: GET /contacts (auth required)
func (h *ContactHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	contacts, err := h.svc.All(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}
