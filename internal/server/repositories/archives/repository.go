package archives

import (
	"context"

	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
)

type Repository interface {
	Save(ctx context.Context, a *models.Archive) error
	Get(ctx context.Context, contractID string) (*models.Archive, error)
}
