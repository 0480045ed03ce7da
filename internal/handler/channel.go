package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/converse/internal/auth"
	"github.com/sakif/converse/internal/service"
)

// ChannelHandler serves channel creation, the caller's channel list, and
// channel message history.
type ChannelHandler struct {
	svc    *service.ChannelService
	logger *slog.Logger
}

func NewChannelHandler(svc *service.ChannelService, logger *slog.Logger) *ChannelHandler {
	return &ChannelHandler{svc: svc, logger: logger}
}

type createChannelRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// HandleCreate creates a channel with the caller as admin.
//
// HTTP: POST /channels (auth required)
func (h *ChannelHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		return
	}

	channel, err := h.svc.Create(r.Context(), userID, req.Name, req.Members)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"channel": channel,
		"message": "Channel created successfully",
	})
}

// HandleList returns every channel the caller can see, most recently
// updated first.
//
// HTTP: GET /channels (auth required)
func (h *ChannelHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	channels, err := h.svc.ListFor(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": channels})
}

// HandleMessages returns the channel's enriched message history.
//
// HTTP: GET /channels/{id}/messages (auth required)
func (h *ChannelHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")

	messages, err := h.svc.Messages(r.Context(), channelID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
