package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextfort/postwatch/internal/models"
	"github.com/contextfort/postwatch/internal/repositories"
)

// TestPostgresBackend exercises the repositories against a real PostgreSQL
// instance to cover the dialect differences from the default SQLite backend
// (numbered placeholders, BIGSERIAL keys, native unique violations).
func TestPostgresBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	requestRepo, whitelistRepo := InitializeRepositories(testDB.DB)

	t.Run("blocked request lifecycle", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		created, err := requestRepo.Insert(ctx, &models.BlockedRequest{
			TargetURL:      "https://tracker.example.com/collect",
			TargetHostname: "tracker.example.com",
			SourceURL:      "https://app.example.com/login",
			MatchedFields:  models.FieldList{"email", "password"},
			MatchedValues:  models.FieldValues{"email": "user@example.com"},
			RequestMethod:  models.DefaultRequestMethod,
			Status:         models.StatusDetected,
		})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.False(t, created.Timestamp.IsZero())

		fetched, err := requestRepo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.TargetURL, fetched.TargetURL)
		assert.Equal(t, models.FieldList{"email", "password"}, fetched.MatchedFields)
		assert.Equal(t, models.FieldValues{"email": "user@example.com"}, fetched.MatchedValues)

		updated, err := requestRepo.UpdateStatus(ctx, created.ID, models.StatusBlocked)
		require.NoError(t, err)
		assert.Equal(t, models.StatusBlocked, updated.Status)

		require.NoError(t, requestRepo.DeleteByID(ctx, created.ID))

		_, err = requestRepo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("list filters and aggregation", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		now := time.Now().UTC()
		seed := []struct {
			hostname string
			status   string
			age      time.Duration
		}{
			{"evil.com", models.StatusDetected, time.Hour},
			{"evil.com", models.StatusBlocked, 2 * time.Hour},
			{"bad.com", models.StatusDetected, 48 * time.Hour},
		}
		for _, s := range seed {
			_, err := requestRepo.Insert(ctx, &models.BlockedRequest{
				Timestamp:      now.Add(-s.age),
				TargetURL:      "https://" + s.hostname + "/submit",
				TargetHostname: s.hostname,
				SourceURL:      "https://victim.example.com/form",
				MatchedFields:  models.FieldList{"password"},
				MatchedValues:  models.FieldValues{"password": "secret"},
				RequestMethod:  models.DefaultRequestMethod,
				Status:         s.status,
			})
			require.NoError(t, err)
		}

		all, err := requestRepo.List(ctx, repositories.BlockedRequestFilters{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		// newest first
		assert.Equal(t, "evil.com", all[0].TargetHostname)

		filtered, err := requestRepo.List(ctx, repositories.BlockedRequestFilters{
			Hostname: "evil.com",
			Status:   models.StatusBlocked,
		})
		require.NoError(t, err)
		require.Len(t, filtered, 1)

		total, err := requestRepo.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		recent, err := requestRepo.CountSince(ctx, now.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), recent)

		byStatus, err := requestRepo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), byStatus[models.StatusDetected])
		assert.Equal(t, int64(1), byStatus[models.StatusBlocked])

		top, err := requestRepo.TopHostnames(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "evil.com", top[0].Hostname)
		assert.Equal(t, int64(2), top[0].Count)

		deleted, err := requestRepo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
	})

	t.Run("whitelist unique violation maps to conflict", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		entry := &models.WhitelistEntry{
			URL:      "https://trusted.example.com/login",
			Hostname: "trusted.example.com",
		}

		created, err := whitelistRepo.Insert(ctx, entry)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		_, err = whitelistRepo.Insert(ctx, entry)
		assert.ErrorIs(t, err, models.ErrConflict)

		exists, err := whitelistRepo.ExistsByHostname(ctx, "trusted.example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, whitelistRepo.DeleteByID(ctx, created.ID))
	})
}
