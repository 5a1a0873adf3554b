package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/leasekeeper/internal/dbx"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/archives"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/contracts"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/invitations"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Contracts(db dbx.DBTX) contracts.Repository
	Invitations(db dbx.DBTX) invitations.Repository
	Archives(db dbx.DBTX) archives.Repository
}
