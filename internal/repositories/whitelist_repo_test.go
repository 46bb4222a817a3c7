package repositories

import (
	"context"
	"testing"

	"github.com/contextfort/postwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitelistRepository_InsertAndList(t *testing.T) {
	repo := NewWhitelistRepository(newTestDB(t))
	ctx := context.Background()

	notes := "internal tool"
	created, err := repo.Insert(ctx, &models.WhitelistEntry{
		URL:      "https://intranet.example.com/login",
		Hostname: "intranet.example.com",
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.AddedAt.IsZero())
	require.NotNil(t, created.Notes)
	assert.Equal(t, notes, *created.Notes)

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, created.ID, entries[0].ID)
}

func TestWhitelistRepository_DuplicateURL(t *testing.T) {
	repo := NewWhitelistRepository(newTestDB(t))
	ctx := context.Background()

	entry := &models.WhitelistEntry{URL: "https://example.com", Hostname: "example.com"}
	_, err := repo.Insert(ctx, entry)
	require.NoError(t, err)

	_, err = repo.Insert(ctx, &models.WhitelistEntry{URL: "https://example.com", Hostname: "example.com"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestWhitelistRepository_Exists(t *testing.T) {
	repo := NewWhitelistRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Insert(ctx, &models.WhitelistEntry{
		URL:      "https://example.com/form",
		Hostname: "example.com",
	})
	require.NoError(t, err)

	byURL, err := repo.ExistsByURL(ctx, "https://example.com/form")
	require.NoError(t, err)
	assert.True(t, byURL)

	byURL, err = repo.ExistsByURL(ctx, "https://example.com/other")
	require.NoError(t, err)
	assert.False(t, byURL)

	byHost, err := repo.ExistsByHostname(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, byHost)

	byHost, err = repo.ExistsByHostname(ctx, "other.com")
	require.NoError(t, err)
	assert.False(t, byHost)
}

func TestWhitelistRepository_Delete(t *testing.T) {
	repo := NewWhitelistRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Insert(ctx, &models.WhitelistEntry{
		URL:      "https://example.com",
		Hostname: "example.com",
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, created.ID))
	assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID), models.ErrNotFound)
}
