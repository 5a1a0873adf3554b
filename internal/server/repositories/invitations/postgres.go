// Package invitations provides the PostgreSQL-backed invitation repository.
package invitations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/dbx"
	"github.com/dmitrijs2005/leasekeeper/internal/signing"
)

// PostgresRepository implements invitation storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const invitationColumns = `id, seq, contract_id, signer_id, signer_type, signer_name, signer_email,
	token_hash, status, created_at, expires_at, resend_count,
	signature_image, signed_at, signer_ip, signer_user_agent`

// Create inserts an invitation and returns it with the sequence number
// assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, inv *signing.Invitation) (*signing.Invitation, error) {
	query := `INSERT INTO invitations (id, contract_id, signer_id, signer_type, signer_name, signer_email,
			token_hash, status, created_at, expires_at, resend_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`

	out := *inv
	err := r.db.QueryRowContext(ctx, query,
		inv.ID, inv.ContractID, inv.SignerID, string(inv.SignerType), inv.SignerName, inv.SignerEmail,
		inv.TokenHash, string(inv.Status), inv.CreatedAt, inv.ExpiresAt, inv.ResendCount,
	).Scan(&out.Seq)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

// ListByContract returns every invitation of a contract, oldest first.
func (r *PostgresRepository) ListByContract(ctx context.Context, contractID string) ([]signing.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations
		WHERE contract_id = $1
		ORDER BY created_at, seq`
	return r.list(ctx, query, contractID)
}

// ListBySigner returns the invitations of one signer identity, oldest first.
func (r *PostgresRepository) ListBySigner(ctx context.Context, contractID string, signerType signing.Role, signerID string) ([]signing.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations
		WHERE contract_id = $1 AND signer_type = $2 AND signer_id = $3
		ORDER BY created_at, seq`
	return r.list(ctx, query, contractID, string(signerType), signerID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]signing.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select invitations: %w", err)
	}
	defer rows.Close()

	var result []signing.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindByTokenHash returns the invitation holding the token hash or
// common.ErrInvalidToken.
func (r *PostgresRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*signing.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token_hash = $1`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, tokenHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// MarkSigned stores the signature of an invitation that is still sent.
// Zero matched rows means someone signed it first: common.ErrAlreadySigned.
func (r *PostgresRepository) MarkSigned(ctx context.Context, inv *signing.Invitation) error {
	query := `UPDATE invitations
		SET status = $2, signature_image = $3, signed_at = $4, signer_ip = $5, signer_user_agent = $6
		WHERE id = $1 AND status = 'sent'`
	res, err := r.db.ExecContext(ctx, query,
		inv.ID, string(inv.Status), inv.SignatureImage, inv.SignedAt, inv.SignerIP, inv.SignerUserAgent)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.AffectedOne(res); err != nil {
		if errors.Is(err, dbx.ErrNoRowsAffected) {
			return common.ErrAlreadySigned
		}
		return err
	}
	return nil
}

// DeleteByIDs removes the given invitations and reports how many went.
func (r *PostgresRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}
	query := `DELETE FROM invitations WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// ExpireBefore marks sent invitations whose expiry has passed as expired.
// Reads derive the same status on their own; this only keeps stored rows
// in line for reporting.
func (r *PostgresRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = 'expired' WHERE status = 'sent' AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvitation(s scanner) (*signing.Invitation, error) {
	var (
		inv                  signing.Invitation
		signerType, status   string
		image, ip, userAgent sql.NullString
		signedAt             sql.NullTime
	)
	err := s.Scan(
		&inv.ID, &inv.Seq, &inv.ContractID, &inv.SignerID, &signerType, &inv.SignerName, &inv.SignerEmail,
		&inv.TokenHash, &status, &inv.CreatedAt, &inv.ExpiresAt, &inv.ResendCount,
		&image, &signedAt, &ip, &userAgent,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan invitation: %w", err)
	}

	inv.SignerType = signing.Role(signerType)
	inv.Status = signing.Status(status)
	inv.SignatureImage = image.String
	inv.SignerIP = ip.String
	inv.SignerUserAgent = userAgent.String
	if signedAt.Valid {
		t := signedAt.Time
		inv.SignedAt = &t
	}
	return &inv, nil
}
