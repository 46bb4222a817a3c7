package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/contextfort/postwatch/internal/models"
	"github.com/contextfort/postwatch/internal/repositories"
	"github.com/contextfort/postwatch/pkg/logger"
)

// BlockedRequestRepository defines the interface for blocked request data access
type BlockedRequestRepository interface {
	Insert(ctx context.Context, req *models.BlockedRequest) (*models.BlockedRequest, error)
	List(ctx context.Context, filters repositories.BlockedRequestFilters) ([]*models.BlockedRequest, error)
	GetByID(ctx context.Context, id int64) (*models.BlockedRequest, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.BlockedRequest, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	TopHostnames(ctx context.Context, limit int) ([]repositories.HostnameCount, error)
	TimestampsSince(ctx context.Context, cutoff time.Time) ([]time.Time, error)
}

// RequestServiceConfig tunes list pagination and stats aggregation
type RequestServiceConfig struct {
	StatsTopDomains  int
	DefaultListLimit int
	MaxListLimit     int
}

// RequestService handles blocked request business logic
type RequestService struct {
	repo   BlockedRequestRepository
	cfg    RequestServiceConfig
	logger *slog.Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(repo BlockedRequestRepository, cfg RequestServiceConfig, logger *slog.Logger) *RequestService {
	return &RequestService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// DailyActivity is one day's record count in the stats summary
type DailyActivity struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// StatsSummary aggregates the current row set
type StatsSummary struct {
	TotalRequests  int64                        `json:"total_requests"`
	TodayRequests  int64                        `json:"today_requests"`
	ByStatus       map[string]int64             `json:"by_status"`
	TopHostnames   []repositories.HostnameCount `json:"top_hostnames"`
	RecentActivity []DailyActivity              `json:"recent_activity"`
}

// Create stores a new detection event, applying the default method and status
func (s *RequestService) Create(ctx context.Context, req *models.BlockedRequest) (*models.BlockedRequest, error) {
	if req.RequestMethod == "" {
		req.RequestMethod = models.DefaultRequestMethod
	}
	if req.Status == "" {
		req.Status = models.StatusDetected
	}
	if !models.ValidStatus(req.Status) {
		return nil, models.ErrBadRequest
	}

	created, err := s.repo.Insert(ctx, req)
	if err != nil {
		s.logger.Error("failed to create blocked request",
			slog.String("hostname", req.TargetHostname), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("blocked request recorded",
		slog.Int64("id", created.ID),
		slog.String("hostname", created.TargetHostname),
		slog.String("status", created.Status),
	)
	s.logger.Debug("captured form fields",
		slog.Int64("id", created.ID),
		slog.Any("fields", []string(created.MatchedFields)),
		slog.Any("values", logger.MaskedFields(created.MatchedValues)),
	)
	return created, nil
}

// List retrieves records matching the filters with clamped pagination
func (s *RequestService) List(ctx context.Context, filters repositories.BlockedRequestFilters) ([]*models.BlockedRequest, error) {
	if filters.Limit <= 0 {
		filters.Limit = s.cfg.DefaultListLimit
	}
	if s.cfg.MaxListLimit > 0 && filters.Limit > s.cfg.MaxListLimit {
		filters.Limit = s.cfg.MaxListLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	requests, err := s.repo.List(ctx, filters)
	if err != nil {
		s.logger.Error("failed to list blocked requests", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return requests, nil
}

// Get retrieves a single record by id
func (s *RequestService) Get(ctx context.Context, id int64) (*models.BlockedRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get blocked request", slog.Int64("id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return req, nil
}

// UpdateStatus sets only the status of an existing record
func (s *RequestService) UpdateStatus(ctx context.Context, id int64, status string) (*models.BlockedRequest, error) {
	if !models.ValidStatus(status) {
		return nil, models.ErrBadRequest
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update blocked request status",
			slog.Int64("id", id), slog.String("status", status), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("blocked request status updated",
		slog.Int64("id", id), slog.String("status", status))
	return updated, nil
}

// Delete removes a single record
func (s *RequestService) Delete(ctx context.Context, id int64) error {
	err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete blocked request", slog.Int64("id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// DeleteAll removes every record and reports how many were removed
func (s *RequestService) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("failed to delete all blocked requests", slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	s.logger.Info("all blocked requests deleted", slog.Int64("count", deleted))
	return deleted, nil
}

// Stats computes the aggregate summary over the current row set
func (s *RequestService) Stats(ctx context.Context) (*StatsSummary, error) {
	now := time.Now().UTC()

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		s.logger.Error("failed to count blocked requests", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	today, err := s.repo.CountSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		s.logger.Error("failed to count recent blocked requests", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count blocked requests by status", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	top, err := s.repo.TopHostnames(ctx, s.cfg.StatsTopDomains)
	if err != nil {
		s.logger.Error("failed to aggregate top hostnames", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	weekAgo := now.AddDate(0, 0, -7).Truncate(24 * time.Hour)
	timestamps, err := s.repo.TimestampsSince(ctx, weekAgo)
	if err != nil {
		s.logger.Error("failed to load recent activity", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &StatsSummary{
		TotalRequests:  total,
		TodayRequests:  today,
		ByStatus:       byStatus,
		TopHostnames:   top,
		RecentActivity: bucketByDay(timestamps),
	}, nil
}

// bucketByDay folds timestamps into per-UTC-day counts, oldest day first
func bucketByDay(timestamps []time.Time) []DailyActivity {
	counts := make(map[string]int64)
	for _, ts := range timestamps {
		counts[ts.UTC().Format("2006-01-02")]++
	}

	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	activity := make([]DailyActivity, 0, len(days))
	for _, day := range days {
		activity = append(activity, DailyActivity{Date: day, Count: counts[day]})
	}
	return activity
}
