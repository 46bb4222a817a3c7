package services

import (
	"context"
	"testing"

	"github.com/contextfort/postwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWhitelistRepo struct {
	InsertFunc           func(ctx context.Context, entry *models.WhitelistEntry) (*models.WhitelistEntry, error)
	ListFunc             func(ctx context.Context) ([]*models.WhitelistEntry, error)
	ExistsByURLFunc      func(ctx context.Context, url string) (bool, error)
	ExistsByHostnameFunc func(ctx context.Context, hostname string) (bool, error)
	DeleteByIDFunc       func(ctx context.Context, id int64) error
}

func (m *mockWhitelistRepo) Insert(ctx context.Context, entry *models.WhitelistEntry) (*models.WhitelistEntry, error) {
	return m.InsertFunc(ctx, entry)
}

func (m *mockWhitelistRepo) List(ctx context.Context) ([]*models.WhitelistEntry, error) {
	return m.ListFunc(ctx)
}

func (m *mockWhitelistRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return m.ExistsByURLFunc(ctx, url)
}

func (m *mockWhitelistRepo) ExistsByHostname(ctx context.Context, hostname string) (bool, error) {
	return m.ExistsByHostnameFunc(ctx, hostname)
}

func (m *mockWhitelistRepo) DeleteByID(ctx context.Context, id int64) error {
	return m.DeleteByIDFunc(ctx, id)
}

func TestWhitelistService_Add_DerivesHostname(t *testing.T) {
	repo := &mockWhitelistRepo{
		InsertFunc: func(_ context.Context, entry *models.WhitelistEntry) (*models.WhitelistEntry, error) {
			stored := *entry
			stored.ID = 1
			return &stored, nil
		},
	}
	service := NewWhitelistService(repo, testLogger())

	entry, err := service.Add(context.Background(), "https://intranet.example.com/login?next=home", nil)
	require.NoError(t, err)
	assert.Equal(t, "intranet.example.com", entry.Hostname)
}

func TestWhitelistService_Add_BareHostname(t *testing.T) {
	repo := &mockWhitelistRepo{
		InsertFunc: func(_ context.Context, entry *models.WhitelistEntry) (*models.WhitelistEntry, error) {
			return entry, nil
		},
	}
	service := NewWhitelistService(repo, testLogger())

	entry, err := service.Add(context.Background(), "example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "example.com", entry.Hostname)
}

func TestWhitelistService_Add_EmptyURL(t *testing.T) {
	service := NewWhitelistService(&mockWhitelistRepo{}, testLogger())

	_, err := service.Add(context.Background(), "", nil)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestWhitelistService_Add_Duplicate(t *testing.T) {
	repo := &mockWhitelistRepo{
		InsertFunc: func(_ context.Context, _ *models.WhitelistEntry) (*models.WhitelistEntry, error) {
			return nil, models.ErrConflict
		},
	}
	service := NewWhitelistService(repo, testLogger())

	_, err := service.Add(context.Background(), "https://example.com", nil)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestWhitelistService_Check(t *testing.T) {
	tests := []struct {
		name      string
		exact     bool
		byHost    bool
		wantMatch string
		wantFound bool
	}{
		{"exact match wins", true, true, models.WhitelistMatchExact, true},
		{"hostname fallback", false, true, models.WhitelistMatchHostname, true},
		{"no match", false, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockWhitelistRepo{
				ExistsByURLFunc: func(_ context.Context, _ string) (bool, error) {
					return tt.exact, nil
				},
				ExistsByHostnameFunc: func(_ context.Context, _ string) (bool, error) {
					return tt.byHost, nil
				},
			}
			service := NewWhitelistService(repo, testLogger())

			check, err := service.Check(context.Background(), "https://example.com/form")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, check.Whitelisted)
			assert.Equal(t, tt.wantMatch, check.MatchType)
		})
	}
}

func TestWhitelistService_Remove_NotFound(t *testing.T) {
	repo := &mockWhitelistRepo{
		DeleteByIDFunc: func(_ context.Context, _ int64) error {
			return models.ErrNotFound
		},
	}
	service := NewWhitelistService(repo, testLogger())

	err := service.Remove(context.Background(), 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
