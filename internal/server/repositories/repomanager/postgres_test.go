package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/leasekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/archives"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/contracts"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/invitations"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	var _ RepositoryManager = NewPostgresRepositoryManager()
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if c := m.Contracts(db); c == nil {
		t.Fatal("Contracts() nil")
	}
	if i := m.Invitations(db); i == nil {
		t.Fatal("Invitations() nil")
	}
	if a := m.Archives(db); a == nil {
		t.Fatal("Archives() nil")
	}

	var _ contracts.Repository = m.Contracts(db)
	var _ invitations.Repository = m.Invitations(db)
	var _ archives.Repository = m.Archives(db)
}

func TestMigrationsAreEmbedded(t *testing.T) {
	b, err := migrations.Migrations.ReadFile("00001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("empty migration")
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
