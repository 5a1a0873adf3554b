package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/assemble"
	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	sc "github.com/dmitrijs2005/leasekeeper/internal/server/config"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/pdf"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/leasekeeper/internal/server/storage"
	"github.com/dmitrijs2005/leasekeeper/internal/server/templates"
	"github.com/dmitrijs2005/leasekeeper/internal/signing"
	"github.com/zeebo/blake3"
)

// ArchiveLinkValidity is how long a presigned archive link stays valid.
const ArchiveLinkValidity = 15 * time.Minute

// Renderer turns a complete HTML page into a PDF.
type Renderer interface {
	Render(ctx context.Context, html, css string) ([]byte, error)
}

// ObjectStore keeps archived documents.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ArchiveResult is a stored signed contract with a temporary download link.
type ArchiveResult struct {
	Archive *models.Archive
	URL     string
}

// DocumentService produces the contract text in its various forms: the
// merged preview, the assembled document carrying the collected
// signatures, its PDF and the archived copy in object storage.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	templates   templates.Source
	renderer    Renderer
	store       ObjectStore
	now         func() time.Time
}

func NewDocumentService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger,
	tmpl templates.Source, renderer Renderer, store ObjectStore) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger.With("module", "documents"),
		templates:   tmpl,
		renderer:    renderer,
		store:       store,
		now:         time.Now,
	}
}

// Merge renders the contract's answers into the current template.
func (s *DocumentService) Merge(ctx context.Context, c *models.Contract) (string, error) {
	tmpl, err := s.templates.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}
	return lease.Merge(tmpl, c.Answers), nil
}

// Preview returns the merged contract as HTML with every signature slot
// left empty.
func (s *DocumentService) Preview(ctx context.Context, ownerID, contractID string) (string, error) {
	c, err := getOwned(ctx, s.repomanager.Contracts(s.db), ownerID, contractID)
	if err != nil {
		return "", err
	}
	text, err := s.Merge(ctx, c)
	if err != nil {
		return "", err
	}
	text, _ = assemble.Assemble(text, nil)
	return lease.ToHTML(text)
}

// Document returns the contract as HTML with every signature collected so
// far in place.
func (s *DocumentService) Document(ctx context.Context, ownerID, contractID string) (string, error) {
	c, err := getOwned(ctx, s.repomanager.Contracts(s.db), ownerID, contractID)
	if err != nil {
		return "", err
	}
	text, err := s.Assembled(ctx, c)
	if err != nil {
		return "", err
	}
	return lease.ToHTML(text)
}

// PDF renders the assembled contract to PDF. Renderer failures are
// returned to the caller.
func (s *DocumentService) PDF(ctx context.Context, ownerID, contractID string) ([]byte, error) {
	c, err := getOwned(ctx, s.repomanager.Contracts(s.db), ownerID, contractID)
	if err != nil {
		return nil, err
	}
	return s.renderPDF(ctx, c)
}

// Archive renders the contract, stores the PDF and returns a presigned
// download link.
func (s *DocumentService) Archive(ctx context.Context, ownerID, contractID string) (*ArchiveResult, error) {
	c, err := getOwned(ctx, s.repomanager.Contracts(s.db), ownerID, contractID)
	if err != nil {
		return nil, err
	}
	a, err := s.archive(ctx, c)
	if err != nil {
		return nil, err
	}
	url, err := s.store.PresignGet(ctx, a.StorageKey, ArchiveLinkValidity)
	if err != nil {
		return nil, fmt.Errorf("presign archive: %w", err)
	}
	return &ArchiveResult{Archive: a, URL: url}, nil
}

// Assembled merges the contract afresh and places the signatures of every
// signer who has signed. Unplaced signatures are logged.
func (s *DocumentService) Assembled(ctx context.Context, c *models.Contract) (string, error) {
	text, err := s.Merge(ctx, c)
	if err != nil {
		return "", err
	}

	invs, err := s.repomanager.Invitations(s.db).ListByContract(ctx, c.ID)
	if err != nil {
		return "", err
	}

	var signers []assemble.Signer
	for _, e := range signing.BuildRoster(c.Answers, invs, s.now()) {
		if e.Status != signing.StatusSigned || e.Invitation == nil {
			continue
		}
		signers = append(signers, assemble.Signer{Label: e.Label, Name: e.Name, Image: e.Invitation.SignatureImage})
	}

	out, missing := assemble.Assemble(text, signers)
	for _, m := range missing {
		s.logger.Warn(ctx, "signature slot not found", "contract_id", c.ID, "label", m.Label)
	}
	return out, nil
}

func (s *DocumentService) renderPDF(ctx context.Context, c *models.Contract) ([]byte, error) {
	text, err := s.Assembled(ctx, c)
	if err != nil {
		return nil, err
	}
	body, err := lease.ToHTML(text)
	if err != nil {
		return nil, err
	}
	out, err := s.renderer.Render(ctx, pdf.Document("Lease agreement", body), pdf.Stylesheet)
	if err != nil {
		s.logger.Error(ctx, "pdf rendering failed", "contract_id", c.ID, "error", err)
		return nil, err
	}
	return out, nil
}

func (s *DocumentService) archive(ctx context.Context, c *models.Contract) (*models.Archive, error) {
	doc, err := s.renderPDF(ctx, c)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := storage.ContractKey(c.ID, now)
	if err := s.store.Put(ctx, key, doc, "application/pdf"); err != nil {
		return nil, fmt.Errorf("store archive: %w", err)
	}

	sum := blake3.Sum256(doc)
	a := &models.Archive{
		ContractID: c.ID,
		StorageKey: key,
		Digest:     hex.EncodeToString(sum[:]),
		Size:       int64(len(doc)),
		CreatedAt:  now.UTC(),
	}
	if err := s.repomanager.Archives(s.db).Save(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "contract archived", "contract_id", c.ID, "key", key, "digest", a.Digest)
	return a, nil
}
