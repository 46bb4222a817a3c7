package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/contextfort/postwatch/internal/models"
)

// WhitelistRepository defines the interface for whitelist data access
type WhitelistRepository interface {
	Insert(ctx context.Context, entry *models.WhitelistEntry) (*models.WhitelistEntry, error)
	List(ctx context.Context) ([]*models.WhitelistEntry, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	ExistsByHostname(ctx context.Context, hostname string) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
}

// WhitelistService handles whitelist business logic
type WhitelistService struct {
	repo   WhitelistRepository
	logger *slog.Logger
}

// NewWhitelistService creates a new WhitelistService
func NewWhitelistService(repo WhitelistRepository, logger *slog.Logger) *WhitelistService {
	return &WhitelistService{
		repo:   repo,
		logger: logger,
	}
}

// WhitelistCheck is the result of a whitelist lookup
type WhitelistCheck struct {
	Whitelisted bool   `json:"whitelisted"`
	MatchType   string `json:"match_type,omitempty"`
}

// hostnameFromURL extracts the host portion of a URL, falling back to the
// path for bare hostnames like "example.com"
func hostnameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if parsed.Host != "" {
		return parsed.Host
	}
	return strings.Trim(parsed.Path, "/")
}

// Add whitelists a URL, deriving its hostname. Returns models.ErrConflict
// when the URL is already present.
func (s *WhitelistService) Add(ctx context.Context, rawURL string, notes *string) (*models.WhitelistEntry, error) {
	hostname := hostnameFromURL(rawURL)
	if hostname == "" {
		return nil, models.ErrBadRequest
	}

	entry, err := s.repo.Insert(ctx, &models.WhitelistEntry{
		URL:      rawURL,
		Hostname: hostname,
		Notes:    notes,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to add whitelist entry", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("url whitelisted",
		slog.Int64("id", entry.ID), slog.String("hostname", entry.Hostname))
	return entry, nil
}

// List retrieves all whitelist entries
func (s *WhitelistService) List(ctx context.Context) ([]*models.WhitelistEntry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list whitelist", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return entries, nil
}

// Check reports whether a URL is covered by the whitelist, preferring an
// exact URL match over a hostname match
func (s *WhitelistService) Check(ctx context.Context, rawURL string) (*WhitelistCheck, error) {
	exact, err := s.repo.ExistsByURL(ctx, rawURL)
	if err != nil {
		s.logger.Error("failed to check whitelist url", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exact {
		return &WhitelistCheck{Whitelisted: true, MatchType: models.WhitelistMatchExact}, nil
	}

	if hostname := hostnameFromURL(rawURL); hostname != "" {
		byHost, err := s.repo.ExistsByHostname(ctx, hostname)
		if err != nil {
			s.logger.Error("failed to check whitelist hostname", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		if byHost {
			return &WhitelistCheck{Whitelisted: true, MatchType: models.WhitelistMatchHostname}, nil
		}
	}

	return &WhitelistCheck{Whitelisted: false}, nil
}

// Remove deletes a whitelist entry
func (s *WhitelistService) Remove(ctx context.Context, id int64) error {
	err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to remove whitelist entry", slog.Int64("id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}
