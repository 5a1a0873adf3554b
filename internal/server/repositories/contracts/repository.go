package contracts

import (
	"context"

	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Contract) (*models.Contract, error)
	Get(ctx context.Context, id string) (*models.Contract, error)
	GetForUpdate(ctx context.Context, id string) (*models.Contract, error)
	UpdateAnswers(ctx context.Context, id string, answers lease.Answers) error
	UpdateStatus(ctx context.Context, id string, from, to models.ContractStatus) error
}
