package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). Binding to DBTX lets the credential manager write a whole token
// pair inside one transaction.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE name=?`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("%w: get %q: %v", common.ErrSecureStoreUnavailable, name, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, name string, value string) error {
	query := `INSERT INTO secrets (name, value) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value`
	if _, err := r.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("%w: set %q: %v", common.ErrSecureStoreUnavailable, name, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE name=?`, name); err != nil {
		return fmt.Errorf("%w: delete %q: %v", common.ErrSecureStoreUnavailable, name, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM secrets`); err != nil {
		return fmt.Errorf("%w: clear: %v", common.ErrSecureStoreUnavailable, err)
	}
	return nil
}
