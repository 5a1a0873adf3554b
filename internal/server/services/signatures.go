package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/dbx"
	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	sc "github.com/dmitrijs2005/leasekeeper/internal/server/config"
	"github.com/dmitrijs2005/leasekeeper/internal/server/mail"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/leasekeeper/internal/signing"
)

// InviteResult reports a created invitation. The invitation exists even
// when EmailError is set.
type InviteResult struct {
	Invitation signing.Invitation
	Link       string
	EmailSent  bool
	EmailError string
}

// SignerView is what a signer sees behind their link.
type SignerView struct {
	ContractID string
	Label      string
	Name       string
	Status     signing.Status
	ExpiresAt  time.Time
	HTML       string
}

// SignResult reports a stored signature. Completed is set when it was the
// last one the contract needed.
type SignResult struct {
	Invitation signing.Invitation
	Completed  bool
}

// SignatureService runs the signing workflow: roster, invitations,
// signatures and completion of the contract.
type SignatureService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	documents   *DocumentService
	sender      mail.Sender
	issuer      signing.Issuer
	now         func() time.Time
}

func NewSignatureService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger,
	documents *DocumentService, sender mail.Sender) *SignatureService {
	s := &SignatureService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger.With("module", "signatures"),
		documents:   documents,
		sender:      sender,
		now:         time.Now,
	}
	s.issuer = signing.Issuer{
		Validity: config.InvitationValidity,
		Now:      func() time.Time { return s.now() },
	}
	return s
}

// Roster returns the signers of a contract with their current status.
// Superseded duplicate invitations are removed on the way.
func (s *SignatureService) Roster(ctx context.Context, ownerID, contractID string) ([]signing.RosterEntry, error) {
	c, err := getOwned(ctx, s.repomanager.Contracts(s.db), ownerID, contractID)
	if err != nil {
		return nil, err
	}
	return s.roster(ctx, c)
}

func (s *SignatureService) roster(ctx context.Context, c *models.Contract) ([]signing.RosterEntry, error) {
	repo := s.repomanager.Invitations(s.db)

	invs, err := repo.ListByContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	kept, stale := signing.Dedup(invs)
	if len(stale) > 0 {
		n, err := repo.DeleteByIDs(ctx, signing.IDs(stale))
		if err != nil {
			s.logger.Warn(ctx, "failed to remove duplicate invitations", "contract_id", c.ID, "error", err)
		} else {
			s.logger.Debug(ctx, "removed duplicate invitations", "contract_id", c.ID, "count", n)
		}
	}

	return signing.BuildRoster(c.Answers, kept, s.now()), nil
}

// Invite sends a signing link to the signer with the given identity key.
// Calling it again for the same signer is a resend: a new invitation with
// a fresh token and expiry. The first invitation moves a paid contract to
// signing. Email failures are logged and reported in the result.
func (s *SignatureService) Invite(ctx context.Context, ownerID, contractID, signerKey string) (*InviteResult, error) {
	c, err := getOwned(ctx, s.repomanager.Contracts(s.db), ownerID, contractID)
	if err != nil {
		return nil, err
	}
	if !signable(c.Status) {
		return nil, common.ErrInvalidTransition
	}

	roster, err := s.roster(ctx, c)
	if err != nil {
		return nil, err
	}
	entry, ok := signing.Find(roster, signerKey)
	if !ok {
		return nil, common.ErrSignerNotFound
	}

	inv, token, err := s.issuer.Issue(signing.IssueInput{ContractID: c.ID, Signer: entry.Signer}, entry.Invitation)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.startSigning(ctx, tx, c.ID); err != nil {
			return err
		}
		created, err := s.repomanager.Invitations(tx).Create(ctx, &inv)
		if err != nil {
			return err
		}
		inv = *created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "invitation created", "contract_id", c.ID, "signer", entry.Key, "invitation_id", inv.ID,
		"resend_count", inv.ResendCount)

	res := &InviteResult{Invitation: inv, Link: s.signingLink(token)}
	if err := s.sendInvitation(ctx, entry, inv, res.Link); err != nil {
		s.logger.Warn(ctx, "invitation email not sent", "contract_id", c.ID, "signer", entry.Key,
			"invitation_id", inv.ID, "error", err)
		res.EmailError = err.Error()
	} else {
		res.EmailSent = true
	}
	return res, nil
}

// DirectSign records the landlord's signature without an email round
// trip. It produces an ordinary invitation marked with the direct-sign
// address.
func (s *SignatureService) DirectSign(ctx context.Context, ownerID, contractID string, sub signing.Submission) (*SignResult, error) {
	c, err := getOwned(ctx, s.repomanager.Contracts(s.db), ownerID, contractID)
	if err != nil {
		return nil, err
	}
	if !signable(c.Status) {
		return nil, common.ErrInvalidTransition
	}

	roster, err := s.roster(ctx, c)
	if err != nil {
		return nil, err
	}
	var entry *signing.RosterEntry
	for i := range roster {
		if roster[i].Role == signing.RoleLandlord {
			entry = &roster[i]
			break
		}
	}
	if entry == nil {
		return nil, common.ErrSignerNotFound
	}

	inv, _, err := s.issuer.Issue(signing.IssueInput{
		ContractID: c.ID,
		Signer:     entry.Signer,
		Email:      common.DirectSignEmail,
	}, entry.Invitation)
	if err != nil {
		return nil, err
	}
	signed, err := signing.Sign(inv, sub, s.now())
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.startSigning(ctx, tx, c.ID); err != nil {
			return err
		}
		repo := s.repomanager.Invitations(tx)
		created, err := repo.Create(ctx, &inv)
		if err != nil {
			return err
		}
		signed.Seq = created.Seq
		return repo.MarkSigned(ctx, &signed)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "landlord signed directly", "contract_id", c.ID, "invitation_id", signed.ID)

	return &SignResult{Invitation: signed, Completed: s.finish(ctx, c.ID)}, nil
}

// SignerView resolves a signing link.
func (s *SignatureService) SignerView(ctx context.Context, token string) (*SignerView, error) {
	inv, c, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	text, err := s.documents.Assembled(ctx, c)
	if err != nil {
		return nil, err
	}
	html, err := lease.ToHTML(text)
	if err != nil {
		return nil, err
	}

	label := string(inv.SignerType)
	for _, sg := range signing.RequiredSigners(c.Answers) {
		if sg.Role == inv.SignerType && sg.Key == inv.SignerID {
			label = sg.Label
			break
		}
	}

	return &SignerView{
		ContractID: c.ID,
		Label:      label,
		Name:       inv.SignerName,
		Status:     inv.Effective(s.now()),
		ExpiresAt:  inv.ExpiresAt,
		HTML:       html,
	}, nil
}

// Sign stores the signature submitted through a signing link. Unknown,
// superseded, expired and already used links are rejected. When the last
// signature arrives the contract is completed and archived; failures past
// that point are logged and do not undo the signature.
func (s *SignatureService) Sign(ctx context.Context, token string, sub signing.Submission) (*SignResult, error) {
	inv, c, err := s.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	signed, err := signing.Sign(*inv, sub, s.now())
	if err != nil {
		s.logger.Info(ctx, "signature rejected", "contract_id", c.ID, "invitation_id", inv.ID, "reason", err)
		return nil, err
	}
	if err := s.repomanager.Invitations(s.db).MarkSigned(ctx, &signed); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "invitation signed", "contract_id", c.ID, "invitation_id", signed.ID, "ip", sub.IP)

	return &SignResult{Invitation: signed, Completed: s.finish(ctx, c.ID)}, nil
}

// resolveToken finds the invitation behind a token and its contract. An
// invitation replaced by a newer one for the same signer no longer counts.
func (s *SignatureService) resolveToken(ctx context.Context, token string) (*signing.Invitation, *models.Contract, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, common.ErrInvalidToken
	}

	repo := s.repomanager.Invitations(s.db)
	inv, err := repo.FindByTokenHash(ctx, signing.HashToken(token))
	if err != nil {
		return nil, nil, err
	}

	c, err := s.repomanager.Contracts(s.db).Get(ctx, inv.ContractID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, err
	}

	history, err := repo.ListBySigner(ctx, inv.ContractID, inv.SignerType, inv.SignerID)
	if err != nil {
		return nil, nil, err
	}
	for _, other := range history {
		if signing.Newer(other, *inv) {
			return nil, nil, common.ErrInvalidToken
		}
	}
	return inv, c, nil
}

// finish completes and archives the contract once everybody has signed.
// It reports whether this call completed it.
func (s *SignatureService) finish(ctx context.Context, contractID string) bool {
	repo := s.repomanager.Contracts(s.db)
	c, err := repo.Get(ctx, contractID)
	if err != nil {
		s.logger.Error(ctx, "failed to reload contract", "contract_id", contractID, "error", err)
		return false
	}
	if c.Status != models.StatusSigning {
		return false
	}

	roster, err := s.roster(ctx, c)
	if err != nil {
		s.logger.Error(ctx, "failed to build roster", "contract_id", contractID, "error", err)
		return false
	}
	if !signing.AllSigned(roster) {
		return false
	}

	if err := repo.UpdateStatus(ctx, c.ID, models.StatusSigning, models.StatusComplete); err != nil {
		if !errors.Is(err, common.ErrInvalidTransition) {
			s.logger.Error(ctx, "failed to complete contract", "contract_id", contractID, "error", err)
		}
		return false
	}
	c.Status = models.StatusComplete
	s.logger.Info(ctx, "contract complete", "contract_id", contractID)

	if _, err := s.documents.archive(ctx, c); err != nil {
		s.logger.Error(ctx, "failed to archive signed contract", "contract_id", contractID, "error", err)
	}
	return true
}

// startSigning locks the contract and moves it from paid to signing.
func (s *SignatureService) startSigning(ctx context.Context, tx dbx.DBTX, contractID string) error {
	repo := s.repomanager.Contracts(tx)
	c, err := repo.GetForUpdate(ctx, contractID)
	if err != nil {
		return err
	}
	switch c.Status {
	case models.StatusSigning:
		return nil
	case models.StatusPaid:
		return repo.UpdateStatus(ctx, c.ID, models.StatusPaid, models.StatusSigning)
	default:
		return common.ErrInvalidTransition
	}
}

func (s *SignatureService) sendInvitation(ctx context.Context, entry signing.RosterEntry, inv signing.Invitation, link string) error {
	msg, err := mail.Invitation(inv.SignerEmail, entry.Name, entry.Label, link, inv.ExpiresAt)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

func (s *SignatureService) signingLink(token string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + "/signature/" + token
}

func signable(st models.ContractStatus) bool {
	return st == models.StatusPaid || st == models.StatusSigning
}
