package leasectl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// openDB is a test seam for the database connection.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func (a *App) expire(ctx context.Context, args []string) error {
	fs := a.flagSet("expire")
	dsn := fs.StringP("dsn", "d", a.env.DatabaseDSN, "database DSN (LEASE_DATABASE_DSN)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	db, err := openDB(*dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	n, err := repomanager.NewPostgresRepositoryManager().Invitations(db).ExpireBefore(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "%d invitation(s) marked expired\n", n)
	return err
}
