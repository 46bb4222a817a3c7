package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/contextfort/postwatch/internal/models"
	"github.com/contextfort/postwatch/internal/repositories"
	"github.com/contextfort/postwatch/internal/services"
	pkghttp "github.com/contextfort/postwatch/pkg/http"
	"github.com/go-chi/chi/v5"
)

// RequestService defines the interface for blocked request business logic
type RequestService interface {
	Create(ctx context.Context, req *models.BlockedRequest) (*models.BlockedRequest, error)
	List(ctx context.Context, filters repositories.BlockedRequestFilters) ([]*models.BlockedRequest, error)
	Get(ctx context.Context, id int64) (*models.BlockedRequest, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.BlockedRequest, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*services.StatsSummary, error)
}

// RequestHandler handles blocked request HTTP endpoints
type RequestHandler struct {
	service RequestService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(service RequestService) *RequestHandler {
	return &RequestHandler{
		service: service,
	}
}

// Request/Response DTOs

// CreateRequestBody represents the ingestion payload reported by the extension
type CreateRequestBody struct {
	Timestamp      *time.Time        `json:"timestamp"`
	TargetURL      string            `json:"target_url" validate:"required"`
	TargetHostname string            `json:"target_hostname" validate:"required"`
	SourceURL      string            `json:"source_url" validate:"required"`
	MatchedFields  []string          `json:"matched_fields" validate:"required"`
	MatchedValues  map[string]string `json:"matched_values" validate:"required"`
	RequestMethod  string            `json:"request_method" validate:"omitempty,min=1"`
	Status         string            `json:"status" validate:"omitempty,oneof=detected blocked allowed"`
}

// UpdateStatusBody represents the status update payload
type UpdateStatusBody struct {
	Status string `json:"status" validate:"required,oneof=detected blocked allowed"`
}

// BlockedRequestResponse represents a record in the HTTP response
type BlockedRequestResponse struct {
	ID             int64             `json:"id"`
	Timestamp      string            `json:"timestamp"`
	TargetURL      string            `json:"target_url"`
	TargetHostname string            `json:"target_hostname"`
	SourceURL      string            `json:"source_url"`
	MatchedFields  []string          `json:"matched_fields"`
	MatchedValues  map[string]string `json:"matched_values"`
	RequestMethod  string            `json:"request_method"`
	Status         string            `json:"status"`
}

// DeleteAllResponse reports how many records a bulk delete removed
type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}

// requestModelToResponse converts a record model to a response DTO
func requestModelToResponse(req *models.BlockedRequest) *BlockedRequestResponse {
	return &BlockedRequestResponse{
		ID:             req.ID,
		Timestamp:      req.Timestamp.UTC().Format(time.RFC3339),
		TargetURL:      req.TargetURL,
		TargetHostname: req.TargetHostname,
		SourceURL:      req.SourceURL,
		MatchedFields:  req.MatchedFields,
		MatchedValues:  req.MatchedValues,
		RequestMethod:  req.RequestMethod,
		Status:         req.Status,
	}
}

// Create stores a new blocked request
//
// POST /api/blocked-requests
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		pkghttp.WriteBadRequest(w, "invalid JSON body")
		return
	}

	if err := ValidateRequest(&body); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req := &models.BlockedRequest{
		TargetURL:      body.TargetURL,
		TargetHostname: body.TargetHostname,
		SourceURL:      body.SourceURL,
		MatchedFields:  models.FieldList(body.MatchedFields),
		MatchedValues:  models.FieldValues(body.MatchedValues),
		RequestMethod:  body.RequestMethod,
		Status:         body.Status,
	}
	if body.Timestamp != nil {
		req.Timestamp = body.Timestamp.UTC()
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "invalid record")
			return
		}
		pkghttp.WriteInternalError(w, "failed to store record")
		return
	}

	writeJSON(w, http.StatusCreated, requestModelToResponse(created))
}

// List retrieves records with optional filters
//
// GET /api/blocked-requests?status=&hostname=&date_from=&date_to=&limit=&offset=
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters repositories.BlockedRequestFilters

	query := r.URL.Query()

	if status := query.Get("status"); status != "" {
		if !models.ValidStatus(status) {
			pkghttp.WriteBadRequest(w, "invalid status filter")
			return
		}
		filters.Status = status
	}
	filters.Hostname = query.Get("hostname")

	if from := query.Get("date_from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			pkghttp.WriteBadRequest(w, "invalid date_from parameter")
			return
		}
		filters.From = &t
	}
	if to := query.Get("date_to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			pkghttp.WriteBadRequest(w, "invalid date_to parameter")
			return
		}
		filters.To = &t
	}

	if l := query.Get("limit"); l != "" {
		if err := parseIntParam(l, &filters.Limit, 1); err != nil {
			pkghttp.WriteBadRequest(w, "invalid limit parameter")
			return
		}
	}
	if o := query.Get("offset"); o != "" {
		if err := parseIntParam(o, &filters.Offset, 0); err != nil {
			pkghttp.WriteBadRequest(w, "invalid offset parameter")
			return
		}
	}

	requests, err := h.service.List(r.Context(), filters)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to list records")
		return
	}

	responses := make([]*BlockedRequestResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, requestModelToResponse(req))
	}

	writeJSON(w, http.StatusOK, responses)
}

// Get retrieves a single record by id
//
// GET /api/blocked-requests/{id}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid record id")
		return
	}

	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "record not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to fetch record")
		return
	}

	writeJSON(w, http.StatusOK, requestModelToResponse(req))
}

// UpdateStatus sets the status of an existing record
//
// PATCH /api/blocked-requests/{id}/status
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid record id")
		return
	}

	var body UpdateStatusBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		pkghttp.WriteBadRequest(w, "invalid JSON body")
		return
	}

	if err := ValidateRequest(&body); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "record not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "invalid status value")
		default:
			pkghttp.WriteInternalError(w, "failed to update record")
		}
		return
	}

	writeJSON(w, http.StatusOK, requestModelToResponse(updated))
}

// Delete removes a single record
//
// DELETE /api/blocked-requests/{id}
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid record id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "record not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to delete record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll removes every record
//
// DELETE /api/blocked-requests
func (h *RequestHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteAll(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to delete records")
		return
	}

	writeJSON(w, http.StatusOK, DeleteAllResponse{Deleted: deleted})
}

// Stats returns the aggregate summary
//
// GET /api/stats
func (h *RequestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// parseIDParam extracts the integer id URL parameter
func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// parseIntParam parses a non-negative integer query parameter into dest
func parseIntParam(value string, dest *int, min int) error {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if parsed < min {
		return strconv.ErrRange
	}
	*dest = parsed
	return nil
}
