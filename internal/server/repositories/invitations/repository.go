package invitations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/signing"
)

type Repository interface {
	Create(ctx context.Context, inv *signing.Invitation) (*signing.Invitation, error)
	ListByContract(ctx context.Context, contractID string) ([]signing.Invitation, error)
	ListBySigner(ctx context.Context, contractID string, signerType signing.Role, signerID string) ([]signing.Invitation, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*signing.Invitation, error)
	MarkSigned(ctx context.Context, inv *signing.Invitation) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}
