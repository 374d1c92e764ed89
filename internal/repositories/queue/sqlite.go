package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/dbx"
	"github.com/andrejsm/readsync/internal/models"
)

// SQLiteRepository implements Repository over the shared local database.
// FIFO order comes from the autoincrement seq column, not enqueued_at,
// so records enqueued within the same millisecond keep their order.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append replaces any earlier intent for the same (kind class, target) and
// inserts the new record, all in one transaction. The transaction commits
// before Append returns, so a crash right after cannot lose the intent.
func (r *SQLiteRepository) Append(ctx context.Context, rec *models.MutationRecord) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM mutation_queue WHERE kind_class=? AND target=?`,
			rec.KindClass(), rec.Target())
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO mutation_queue
			   (id, kind, kind_class, target, raw_url, link_id, title, status, starred, enqueued_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, string(rec.Kind), rec.KindClass(), rec.Target(),
			rec.RawURL, rec.LinkID, rec.Title, string(rec.Status),
			boolToInt(rec.Starred), rec.EnqueuedAt.UnixMilli())
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrQueuePersistFailed, err)
	}
	return nil
}

func (r *SQLiteRepository) Snapshot(ctx context.Context) ([]models.MutationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, raw_url, link_id, title, status, starred, enqueued_at
		   FROM mutation_queue ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue: %w", err)
	}
	defer rows.Close()

	var result []models.MutationRecord
	for rows.Next() {
		var (
			rec     models.MutationRecord
			kind    string
			status  string
			starred int
			at      int64
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.RawURL, &rec.LinkID,
			&rec.Title, &status, &starred, &at); err != nil {
			return nil, err
		}
		rec.Kind = models.MutationKind(kind)
		rec.Status = models.Status(status)
		rec.Starred = starred != 0
		rec.EnqueuedAt = time.UnixMilli(at)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mutation_queue WHERE id=?`, id); err != nil {
		return fmt.Errorf("failed to remove queue record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Len(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mutation_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue records: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
