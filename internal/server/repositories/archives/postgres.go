// Package archives records where signed contract PDFs are stored.
package archives

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/dbx"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
)

// PostgresRepository implements archive records over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save records an archived contract, replacing an earlier record.
func (r *PostgresRepository) Save(ctx context.Context, a *models.Archive) error {
	query := `
		INSERT INTO contract_archives (contract_id, storage_key, digest, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (contract_id)
		DO UPDATE SET
			storage_key = EXCLUDED.storage_key,
			digest = EXCLUDED.digest,
			size = EXCLUDED.size,
			created_at = now()`
	if _, err := r.db.ExecContext(ctx, query, a.ContractID, a.StorageKey, a.Digest, a.Size); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the archive record of a contract or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, contractID string) (*models.Archive, error) {
	query := `SELECT contract_id, storage_key, digest, size, created_at FROM contract_archives WHERE contract_id = $1`

	var a models.Archive
	err := r.db.QueryRowContext(ctx, query, contractID).
		Scan(&a.ContractID, &a.StorageKey, &a.Digest, &a.Size, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &a, nil
}
