package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/contextfort/postwatch/internal/database"
	"github.com/contextfort/postwatch/internal/models"
)

const whitelistColumns = `id, url, hostname, added_at, notes`

// WhitelistRepository handles whitelist data access
type WhitelistRepository struct {
	db *database.DB
}

// NewWhitelistRepository creates a new WhitelistRepository
func NewWhitelistRepository(db *database.DB) *WhitelistRepository {
	return &WhitelistRepository{db: db}
}

func scanWhitelistRow(row rowScanner) (*models.WhitelistEntry, error) {
	var entry models.WhitelistEntry
	var addedAt int64

	err := row.Scan(&entry.ID, &entry.URL, &entry.Hostname, &addedAt, &entry.Notes)
	if err != nil {
		return nil, database.MapStorageError(err)
	}

	entry.AddedAt = fromMillis(addedAt)
	return &entry, nil
}

// Insert stores a new whitelist entry. Returns models.ErrConflict when the URL
// is already whitelisted.
func (r *WhitelistRepository) Insert(ctx context.Context, entry *models.WhitelistEntry) (*models.WhitelistEntry, error) {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO whitelist (url, hostname, added_at, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + whitelistColumns)

	result, err := scanWhitelistRow(r.db.SQL.QueryRowContext(
		ctx, query,
		entry.URL, entry.Hostname, toMillis(entry.AddedAt), entry.Notes,
	))
	if err != nil {
		return nil, err
	}

	return result, nil
}

// List retrieves all whitelist entries, newest first
func (r *WhitelistRepository) List(ctx context.Context) ([]*models.WhitelistEntry, error) {
	query := `SELECT ` + whitelistColumns + ` FROM whitelist ORDER BY added_at DESC, id DESC`

	rows, err := r.db.SQL.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query whitelist: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.WhitelistEntry, 0)
	for rows.Next() {
		entry, err := scanWhitelistRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan whitelist entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating whitelist rows: %w", err)
	}

	return entries, nil
}

// ExistsByURL reports whether an exact URL match is whitelisted
func (r *WhitelistRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM whitelist WHERE url = $1`)

	var count int64
	if err := r.db.SQL.QueryRowContext(ctx, query, url).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check whitelist url: %w", err)
	}
	return count > 0, nil
}

// ExistsByHostname reports whether any entry covers the hostname
func (r *WhitelistRepository) ExistsByHostname(ctx context.Context, hostname string) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM whitelist WHERE hostname = $1`)

	var count int64
	if err := r.db.SQL.QueryRowContext(ctx, query, hostname).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check whitelist hostname: %w", err)
	}
	return count > 0, nil
}

// DeleteByID removes a single entry
func (r *WhitelistRepository) DeleteByID(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM whitelist WHERE id = $1`)

	result, err := r.db.SQL.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete whitelist entry: %w", database.MapStorageError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}
