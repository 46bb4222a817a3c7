package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/contextfort/postwatch/internal/models"
	"github.com/contextfort/postwatch/internal/services"
	pkghttp "github.com/contextfort/postwatch/pkg/http"
)

// WhitelistService defines the interface for whitelist business logic
type WhitelistService interface {
	Add(ctx context.Context, rawURL string, notes *string) (*models.WhitelistEntry, error)
	List(ctx context.Context) ([]*models.WhitelistEntry, error)
	Check(ctx context.Context, rawURL string) (*services.WhitelistCheck, error)
	Remove(ctx context.Context, id int64) error
}

// WhitelistHandler handles whitelist HTTP endpoints
type WhitelistHandler struct {
	service WhitelistService
}

// NewWhitelistHandler creates a new WhitelistHandler
func NewWhitelistHandler(service WhitelistService) *WhitelistHandler {
	return &WhitelistHandler{
		service: service,
	}
}

// AddWhitelistBody represents the request body for whitelisting a URL
type AddWhitelistBody struct {
	URL   string  `json:"url" validate:"required"`
	Notes *string `json:"notes"`
}

// WhitelistEntryResponse represents a whitelist entry in the HTTP response
type WhitelistEntryResponse struct {
	ID       int64   `json:"id"`
	URL      string  `json:"url"`
	Hostname string  `json:"hostname"`
	AddedAt  string  `json:"added_at"`
	Notes    *string `json:"notes"`
}

func whitelistModelToResponse(entry *models.WhitelistEntry) *WhitelistEntryResponse {
	return &WhitelistEntryResponse{
		ID:       entry.ID,
		URL:      entry.URL,
		Hostname: entry.Hostname,
		AddedAt:  entry.AddedAt.UTC().Format(time.RFC3339),
		Notes:    entry.Notes,
	}
}

// Add whitelists a URL
//
// POST /api/whitelist
func (h *WhitelistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body AddWhitelistBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		pkghttp.WriteBadRequest(w, "invalid JSON body")
		return
	}

	if err := ValidateRequest(&body); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	entry, err := h.service.Add(r.Context(), body.URL, body.Notes)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "URL already whitelisted")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "invalid URL")
		default:
			pkghttp.WriteInternalError(w, "failed to whitelist URL")
		}
		return
	}

	writeJSON(w, http.StatusCreated, whitelistModelToResponse(entry))
}

// List retrieves all whitelist entries
//
// GET /api/whitelist
func (h *WhitelistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to list whitelist")
		return
	}

	responses := make([]*WhitelistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, whitelistModelToResponse(entry))
	}

	writeJSON(w, http.StatusOK, responses)
}

// Check reports whether a URL is whitelisted
//
// GET /api/whitelist/check?url=
func (h *WhitelistHandler) Check(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		pkghttp.WriteBadRequest(w, "url parameter is required")
		return
	}

	check, err := h.service.Check(r.Context(), rawURL)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to check whitelist")
		return
	}

	writeJSON(w, http.StatusOK, check)
}

// Remove deletes a whitelist entry
//
// DELETE /api/whitelist/{id}
func (h *WhitelistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid whitelist id")
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "whitelist entry not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to remove whitelist entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
