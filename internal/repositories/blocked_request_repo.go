package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contextfort/postwatch/internal/database"
	"github.com/contextfort/postwatch/internal/models"
)

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const blockedRequestColumns = `id, timestamp, target_url, target_hostname, source_url,
	       matched_fields, matched_values, request_method, status`

// BlockedRequestRepository handles blocked request data access
type BlockedRequestRepository struct {
	db *database.DB
}

// NewBlockedRequestRepository creates a new BlockedRequestRepository
func NewBlockedRequestRepository(db *database.DB) *BlockedRequestRepository {
	return &BlockedRequestRepository{db: db}
}

// BlockedRequestFilters narrows List results. Zero values mean "no filter";
// provided filters combine with logical AND.
type BlockedRequestFilters struct {
	Status   string
	Hostname string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// HostnameCount is one row of the per-hostname aggregation
type HostnameCount struct {
	Hostname string `json:"hostname"`
	Count    int64  `json:"count"`
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func scanBlockedRequestRow(row rowScanner) (*models.BlockedRequest, error) {
	var req models.BlockedRequest
	var ts int64

	err := row.Scan(
		&req.ID, &ts, &req.TargetURL, &req.TargetHostname, &req.SourceURL,
		&req.MatchedFields, &req.MatchedValues, &req.RequestMethod, &req.Status,
	)
	if err != nil {
		return nil, database.MapStorageError(err)
	}

	req.Timestamp = fromMillis(ts)
	return &req, nil
}

// Insert stores a new record and returns it with its assigned id. A zero
// Timestamp is replaced with the current time.
func (r *BlockedRequestRepository) Insert(ctx context.Context, req *models.BlockedRequest) (*models.BlockedRequest, error) {
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO blocked_requests (
			timestamp, target_url, target_hostname, source_url,
			matched_fields, matched_values, request_method, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + blockedRequestColumns)

	result, err := scanBlockedRequestRow(r.db.SQL.QueryRowContext(
		ctx, query,
		toMillis(req.Timestamp), req.TargetURL, req.TargetHostname, req.SourceURL,
		req.MatchedFields, req.MatchedValues, req.RequestMethod, req.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert blocked request: %w", err)
	}

	return result, nil
}

// List retrieves records matching the filters, most recent first
func (r *BlockedRequestRepository) List(ctx context.Context, filters BlockedRequestFilters) ([]*models.BlockedRequest, error) {
	var conds []string
	var args []interface{}

	if filters.Status != "" {
		args = append(args, filters.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.Hostname != "" {
		args = append(args, filters.Hostname)
		conds = append(conds, fmt.Sprintf("target_hostname = $%d", len(args)))
	}
	if filters.From != nil {
		args = append(args, toMillis(*filters.From))
		conds = append(conds, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filters.To != nil {
		args = append(args, toMillis(*filters.To))
		conds = append(conds, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	query := `SELECT ` + blockedRequestColumns + ` FROM blocked_requests`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.BlockedRequest, 0)
	for rows.Next() {
		req, err := scanBlockedRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blocked request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocked request rows: %w", err)
	}

	return requests, nil
}

// GetByID retrieves a single record
func (r *BlockedRequestRepository) GetByID(ctx context.Context, id int64) (*models.BlockedRequest, error) {
	query := r.db.Rebind(`SELECT ` + blockedRequestColumns + ` FROM blocked_requests WHERE id = $1`)

	return scanBlockedRequestRow(r.db.SQL.QueryRowContext(ctx, query, id))
}

// UpdateStatus sets only the status field and returns the updated record
func (r *BlockedRequestRepository) UpdateStatus(ctx context.Context, id int64, status string) (*models.BlockedRequest, error) {
	query := r.db.Rebind(`
		UPDATE blocked_requests
		SET status = $1
		WHERE id = $2
		RETURNING ` + blockedRequestColumns)

	return scanBlockedRequestRow(r.db.SQL.QueryRowContext(ctx, query, status, id))
}

// DeleteByID removes a single record
func (r *BlockedRequestRepository) DeleteByID(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM blocked_requests WHERE id = $1`)

	result, err := r.db.SQL.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete blocked request: %w", database.MapStorageError(err))
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

// DeleteAll removes every record and returns the number deleted
func (r *BlockedRequestRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.SQL.ExecContext(ctx, `DELETE FROM blocked_requests`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete blocked requests: %w", database.MapStorageError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected, nil
}

// CountAll counts every stored record
func (r *BlockedRequestRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocked_requests`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count blocked requests: %w", err)
	}
	return count, nil
}

// CountSince counts records with a timestamp at or after the cutoff
func (r *BlockedRequestRepository) CountSince(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM blocked_requests WHERE timestamp >= $1`)

	var count int64
	err := r.db.SQL.QueryRowContext(ctx, query, toMillis(cutoff)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent blocked requests: %w", err)
	}
	return count, nil
}

// CountByStatus returns a count per distinct status present in the table
func (r *BlockedRequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `SELECT status, COUNT(*) FROM blocked_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count blocked requests by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// TopHostnames returns the most frequent target hostnames, count descending
// with lexical hostname order breaking ties
func (r *BlockedRequestRepository) TopHostnames(ctx context.Context, limit int) ([]HostnameCount, error) {
	query := r.db.Rebind(`
		SELECT target_hostname, COUNT(*) AS count
		FROM blocked_requests
		GROUP BY target_hostname
		ORDER BY count DESC, target_hostname ASC
		LIMIT $1
	`)

	rows, err := r.db.SQL.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top hostnames: %w", err)
	}
	defer rows.Close()

	hostnames := make([]HostnameCount, 0)
	for rows.Next() {
		var hc HostnameCount
		if err := rows.Scan(&hc.Hostname, &hc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hostname count: %w", err)
		}
		hostnames = append(hostnames, hc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hostname counts: %w", err)
	}

	return hostnames, nil
}

// TimestampsSince returns raw record timestamps at or after the cutoff,
// oldest first, for activity bucketing
func (r *BlockedRequestRepository) TimestampsSince(ctx context.Context, cutoff time.Time) ([]time.Time, error) {
	query := r.db.Rebind(`SELECT timestamp FROM blocked_requests WHERE timestamp >= $1 ORDER BY timestamp ASC`)

	rows, err := r.db.SQL.QueryContext(ctx, query, toMillis(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent timestamps: %w", err)
	}
	defer rows.Close()

	timestamps := make([]time.Time, 0)
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		timestamps = append(timestamps, fromMillis(ms))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timestamps: %w", err)
	}

	return timestamps, nil
}
