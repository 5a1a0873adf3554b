// Package httpapi is the HTTP transport: the public signing pages and the
// owner API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/services"
	"github.com/dmitrijs2005/leasekeeper/internal/signing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// ContractService is the subset of services.ContractService the API uses.
type ContractService interface {
	Create(ctx context.Context, ownerID string, answers lease.Answers) (*models.Contract, error)
	Get(ctx context.Context, ownerID, contractID string) (*models.Contract, error)
	UpdateAnswers(ctx context.Context, ownerID, contractID string, answers lease.Answers) (*models.Contract, error)
	Transition(ctx context.Context, ownerID, contractID string, to models.ContractStatus) (*models.Contract, error)
}

// DocumentService is the subset of services.DocumentService the API uses.
type DocumentService interface {
	Preview(ctx context.Context, ownerID, contractID string) (string, error)
	Document(ctx context.Context, ownerID, contractID string) (string, error)
	PDF(ctx context.Context, ownerID, contractID string) ([]byte, error)
	Archive(ctx context.Context, ownerID, contractID string) (*services.ArchiveResult, error)
}

// SignatureService is the subset of services.SignatureService the API uses.
type SignatureService interface {
	Roster(ctx context.Context, ownerID, contractID string) ([]signing.RosterEntry, error)
	Invite(ctx context.Context, ownerID, contractID, signerKey string) (*services.InviteResult, error)
	DirectSign(ctx context.Context, ownerID, contractID string, sub signing.Submission) (*services.SignResult, error)
	SignerView(ctx context.Context, token string) (*services.SignerView, error)
	Sign(ctx context.Context, token string, sub signing.Submission) (*services.SignResult, error)
}

type Server struct {
	address    string
	logger     logging.Logger
	jwtSecret  []byte
	contracts  ContractService
	documents  DocumentService
	signatures SignatureService
}

func NewServer(address string, l logging.Logger, secretKey string,
	cs ContractService, ds DocumentService, ss SignatureService) *Server {
	return &Server{
		address:    address,
		logger:     l.With("module", "http_server"),
		jwtSecret:  []byte(secretKey),
		contracts:  cs,
		documents:  ds,
		signatures: ss,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/signature/{token}", func(r chi.Router) {
		r.Get("/", s.handleSignerView)
		r.Post("/", s.handleSign)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.ownerAuth)

		r.Post("/contracts", s.handleCreateContract)
		r.Route("/contracts/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetContract)
			r.Put("/answers", s.handleUpdateAnswers)
			r.Post("/status", s.handleTransition)
			r.Get("/preview", s.handlePreview)
			r.Get("/document", s.handleDocument)
			r.Get("/pdf", s.handlePDF)
			r.Post("/archive", s.handleArchive)
			r.Get("/signers", s.handleRoster)
			r.Post("/signers/{signerKey}/invite", s.handleInvite)
			r.Post("/sign-direct", s.handleDirectSign)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
