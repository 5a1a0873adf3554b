// Package services contains the server-side business logic: contract
// lifecycle, documents and the signing workflow.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/dbx"
	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	sc "github.com/dmitrijs2005/leasekeeper/internal/server/config"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/contracts"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ContractService manages contracts and their wizard status.
type ContractService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	newID       func() string
}

func NewContractService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *ContractService {
	return &ContractService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger.With("module", "contracts"),
		newID:       func() string { return uuid.New().String() },
	}
}

// Create starts a draft contract for the owner.
func (s *ContractService) Create(ctx context.Context, ownerID string, answers lease.Answers) (*models.Contract, error) {
	if ownerID == "" {
		return nil, common.ErrorUnauthorized
	}
	if answers == nil {
		answers = lease.Answers{}
	}
	c := &models.Contract{
		ID:      s.newID(),
		OwnerID: ownerID,
		Answers: answers,
		Status:  models.StatusDraft,
	}
	created, err := s.repomanager.Contracts(s.db).Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error creating contract: %w", err)
	}
	s.logger.Info(ctx, "contract created", "contract_id", created.ID)
	return created, nil
}

// Get returns one of the owner's contracts.
func (s *ContractService) Get(ctx context.Context, ownerID, contractID string) (*models.Contract, error) {
	return getOwned(ctx, s.repomanager.Contracts(s.db), ownerID, contractID)
}

// UpdateAnswers replaces the answers of a contract that is still in draft
// or summary.
func (s *ContractService) UpdateAnswers(ctx context.Context, ownerID, contractID string, answers lease.Answers) (*models.Contract, error) {
	if answers == nil {
		return nil, fmt.Errorf("%w: answers are required", common.ErrorValidation)
	}

	var out *models.Contract
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Contracts(tx)
		c, err := getOwnedForUpdate(ctx, repo, ownerID, contractID)
		if err != nil {
			return err
		}
		if !c.Status.AnswersEditable() {
			return common.ErrAnswersLocked
		}
		if err := repo.UpdateAnswers(ctx, c.ID, answers); err != nil {
			return err
		}
		c.Answers = answers
		c.UpdatedAt = time.Now().UTC()
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transition moves a contract to the next wizard status.
func (s *ContractService) Transition(ctx context.Context, ownerID, contractID string, to models.ContractStatus) (*models.Contract, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrorValidation, to)
	}

	var out *models.Contract
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Contracts(tx)
		c, err := getOwnedForUpdate(ctx, repo, ownerID, contractID)
		if err != nil {
			return err
		}
		next, err := c.Status.Transition(to)
		if err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, c.ID, c.Status, next); err != nil {
			return err
		}
		s.logger.Info(ctx, "contract status changed", "contract_id", c.ID, "from", c.Status, "to", next)
		c.Status = next
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// getOwned loads a contract. Contracts of other owners are reported as not
// found.
func getOwned(ctx context.Context, repo contracts.Repository, ownerID, contractID string) (*models.Contract, error) {
	c, err := repo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func getOwnedForUpdate(ctx context.Context, repo contracts.Repository, ownerID, contractID string) (*models.Contract, error) {
	c, err := repo.GetForUpdate(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return c, nil
}
