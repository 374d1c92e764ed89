package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/dbx"
	"github.com/andrejsm/readsync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const linkColumns = `id, owner_id, raw_url, resolved_url, title, description, status, device_saved, created_at, updated_at`

// Upsert replaces the cached copy by id. On conflict, every column is
// refreshed; the server copy always wins over the stale cache.
func (r *SQLiteRepository) Upsert(ctx context.Context, link *models.Link) error {
	query := `INSERT INTO links_cache (` + linkColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				owner_id = excluded.owner_id,
				raw_url = excluded.raw_url,
				resolved_url = excluded.resolved_url,
				title = excluded.title,
				description = excluded.description,
				status = excluded.status,
				device_saved = excluded.device_saved,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.OwnerID, link.RawURL, link.ResolvedURL, link.Title,
		link.Description, string(link.Status), link.DeviceSaved,
		timeToText(link.CreatedAt), timeToText(link.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert link: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links_cache WHERE id=?`, id)
	return scanLink(row)
}

func (r *SQLiteRepository) GetByRawURL(ctx context.Context, rawURL string) (*models.Link, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links_cache WHERE raw_url=?`, rawURL)
	return scanLink(row)
}

func (r *SQLiteRepository) List(ctx context.Context, filter models.Filter, limit int) ([]models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links_cache`
	args := []any{}
	if filter.Status != nil {
		query += ` WHERE status=?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY updated_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select links: %w", err)
	}
	defer rows.Close()

	var result []models.Link
	for rows.Next() {
		link, err := scanLinkRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, id string, status models.Status) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE links_cache SET status=? WHERE id=?`, string(status), id); err != nil {
		return fmt.Errorf("failed to update link status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetTitle(ctx context.Context, id string, title *string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE links_cache SET title=? WHERE id=?`, title, id); err != nil {
		return fmt.Errorf("failed to update link title: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM links_cache WHERE id=?`, id); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

func scanLink(row *sql.Row) (*models.Link, error) {
	link, err := scanLinkRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return link, nil
}

func scanLinkRow(scan func(dest ...any) error) (*models.Link, error) {
	var (
		link               models.Link
		status             string
		createdAt, updated sql.NullString
	)
	if err := scan(&link.ID, &link.OwnerID, &link.RawURL, &link.ResolvedURL,
		&link.Title, &link.Description, &status, &link.DeviceSaved,
		&createdAt, &updated); err != nil {
		return nil, err
	}
	link.Status = models.Status(status)
	link.CreatedAt = textToTime(createdAt)
	link.UpdatedAt = textToTime(updated)
	return &link, nil
}

func timeToText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func textToTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
