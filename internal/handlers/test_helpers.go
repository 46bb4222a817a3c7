package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contextfort/postwatch/internal/models"
	"github.com/contextfort/postwatch/internal/repositories"
	"github.com/contextfort/postwatch/internal/services"
	pkghttp "github.com/contextfort/postwatch/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithChiID attaches an id URL parameter via the chi route context
func WithChiID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockRequestService implements RequestService for testing
type MockRequestService struct {
	CreateFunc       func(ctx context.Context, req *models.BlockedRequest) (*models.BlockedRequest, error)
	ListFunc         func(ctx context.Context, filters repositories.BlockedRequestFilters) ([]*models.BlockedRequest, error)
	GetFunc          func(ctx context.Context, id int64) (*models.BlockedRequest, error)
	UpdateStatusFunc func(ctx context.Context, id int64, status string) (*models.BlockedRequest, error)
	DeleteFunc       func(ctx context.Context, id int64) error
	DeleteAllFunc    func(ctx context.Context) (int64, error)
	StatsFunc        func(ctx context.Context) (*services.StatsSummary, error)
}

func (m *MockRequestService) Create(ctx context.Context, req *models.BlockedRequest) (*models.BlockedRequest, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, req)
}

func (m *MockRequestService) List(ctx context.Context, filters repositories.BlockedRequestFilters) ([]*models.BlockedRequest, error) {
	if m.ListFunc == nil {
		return []*models.BlockedRequest{}, nil
	}
	return m.ListFunc(ctx, filters)
}

func (m *MockRequestService) Get(ctx context.Context, id int64) (*models.BlockedRequest, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}

func (m *MockRequestService) UpdateStatus(ctx context.Context, id int64, status string) (*models.BlockedRequest, error) {
	if m.UpdateStatusFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateStatusFunc(ctx, id, status)
}

func (m *MockRequestService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteFunc(ctx, id)
}

func (m *MockRequestService) DeleteAll(ctx context.Context) (int64, error) {
	if m.DeleteAllFunc == nil {
		return 0, nil
	}
	return m.DeleteAllFunc(ctx)
}

func (m *MockRequestService) Stats(ctx context.Context) (*services.StatsSummary, error) {
	if m.StatsFunc == nil {
		return &services.StatsSummary{}, nil
	}
	return m.StatsFunc(ctx)
}

// MockWhitelistService implements WhitelistService for testing
type MockWhitelistService struct {
	AddFunc    func(ctx context.Context, rawURL string, notes *string) (*models.WhitelistEntry, error)
	ListFunc   func(ctx context.Context) ([]*models.WhitelistEntry, error)
	CheckFunc  func(ctx context.Context, rawURL string) (*services.WhitelistCheck, error)
	RemoveFunc func(ctx context.Context, id int64) error
}

func (m *MockWhitelistService) Add(ctx context.Context, rawURL string, notes *string) (*models.WhitelistEntry, error) {
	if m.AddFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.AddFunc(ctx, rawURL, notes)
}

func (m *MockWhitelistService) List(ctx context.Context) ([]*models.WhitelistEntry, error) {
	if m.ListFunc == nil {
		return []*models.WhitelistEntry{}, nil
	}
	return m.ListFunc(ctx)
}

func (m *MockWhitelistService) Check(ctx context.Context, rawURL string) (*services.WhitelistCheck, error) {
	if m.CheckFunc == nil {
		return &services.WhitelistCheck{}, nil
	}
	return m.CheckFunc(ctx, rawURL)
}

func (m *MockWhitelistService) Remove(ctx context.Context, id int64) error {
	if m.RemoveFunc == nil {
		return models.ErrNotFound
	}
	return m.RemoveFunc(ctx, id)
}
