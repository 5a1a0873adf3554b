// Package server wires the leasekeeper HTTP service together: database and
// migrations, collaborators, services and the HTTP transport, plus graceful
// shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/server/config"
	"github.com/dmitrijs2005/leasekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/leasekeeper/internal/server/mail"
	"github.com/dmitrijs2005/leasekeeper/internal/server/pdf"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/leasekeeper/internal/server/services"
	"github.com/dmitrijs2005/leasekeeper/internal/server/storage"
	"github.com/dmitrijs2005/leasekeeper/internal/server/templates"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store := storage.NewS3Store(storage.Options{
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})

	ds := services.NewDocumentService(db, rm, c, logger,
		templates.New(c.TemplatePath), pdf.New(c.PDFServiceURL, c.PDFTimeout), store)
	cs := services.NewContractService(db, rm, c, logger)
	ss := services.NewSignatureService(db, rm, c, logger, ds, newSender(c, logger))

	srv := httpapi.NewServer(c.HTTPAddr, logger, c.SecretKey, cs, ds, ss)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

// newSender picks the email transport. Without a provider URL invitations
// are only logged.
func newSender(c *config.Config, logger logging.Logger) mail.Sender {
	if c.EmailAPIURL == "" {
		return mail.LogSender{Logger: logger.With("module", "mail")}
	}
	return mail.NewHTTPSender(c.EmailAPIURL, c.EmailAPIKey, c.EmailFrom)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
