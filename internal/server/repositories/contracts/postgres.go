// Package contracts provides the PostgreSQL-backed contract repository.
package contracts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/dbx"
	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements contract storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a contract and returns it with the database timestamps.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Contract) (*models.Contract, error) {
	answers, err := encodeAnswers(c.Answers)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO contracts (id, owner_id, answers, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	out := *c
	if err := r.db.QueryRowContext(ctx, query, c.ID, c.OwnerID, answers, string(c.Status)).
		Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

const selectContract = `SELECT id, owner_id, answers, status, created_at, updated_at FROM contracts WHERE id = $1`

// Get returns the contract with the given ID or common.ErrorNotFound,
// which also covers IDs that are not UUIDs.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Contract, error) {
	return r.get(ctx, selectContract, id)
}

// GetForUpdate is Get with a row lock, for use inside a transaction.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Contract, error) {
	return r.get(ctx, selectContract+" FOR UPDATE", id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Contract, error) {
	// ids are canonical UUIDs; anything else cannot exist.
	if u, err := uuid.Parse(id); err != nil || u.String() != strings.ToLower(id) {
		return nil, common.ErrorNotFound
	}

	var (
		c       models.Contract
		answers []byte
		status  string
	)
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.OwnerID, &answers, &status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	c.Status = models.ContractStatus(status)
	if c.Answers, err = decodeAnswers(answers); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateAnswers replaces the answers of a contract that is still in draft
// or summary. Otherwise common.ErrAnswersLocked is returned.
func (r *PostgresRepository) UpdateAnswers(ctx context.Context, id string, answers lease.Answers) error {
	encoded, err := encodeAnswers(answers)
	if err != nil {
		return err
	}

	query := `UPDATE contracts SET answers = $2, updated_at = now()
		WHERE id = $1 AND status IN ('draft', 'summary')`
	res, err := r.db.ExecContext(ctx, query, id, encoded)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.AffectedOne(res); err != nil {
		if errors.Is(err, dbx.ErrNoRowsAffected) {
			return common.ErrAnswersLocked
		}
		return err
	}
	return nil
}

// UpdateStatus moves a contract from one status to another. The update only
// applies while the stored status is still from; otherwise
// common.ErrInvalidTransition is returned.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from, to models.ContractStatus) error {
	query := `UPDATE contracts SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.AffectedOne(res); err != nil {
		if errors.Is(err, dbx.ErrNoRowsAffected) {
			return common.ErrInvalidTransition
		}
		return err
	}
	return nil
}

func encodeAnswers(a lease.Answers) ([]byte, error) {
	if a == nil {
		a = lease.Answers{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return b, nil
}

func decodeAnswers(b []byte) (lease.Answers, error) {
	a := lease.Answers{}
	if len(b) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return a, nil
}
