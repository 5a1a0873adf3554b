package signing

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Status is the lifecycle state of an invitation.
type Status string

const (
	// StatusNotSent is reported for signers without any invitation. It is
	// never stored.
	StatusNotSent Status = "not_sent"
	StatusSent    Status = "sent"
	StatusSigned  Status = "signed"
	// StatusExpired is reported for sent invitations past their expiry.
	StatusExpired Status = "expired"
)

// DefaultValidity is how long an invitation can be used to sign.
const DefaultValidity = 7 * 24 * time.Hour

// TokenSize is the number of random bytes behind an invitation token.
const TokenSize = 32

// Invitation is one request for a signer to sign a contract. Resends create
// a new invitation; the newest one per signer is authoritative.
type Invitation struct {
	ID          string
	ContractID  string
	SignerID    string
	SignerType  Role
	SignerName  string
	SignerEmail string
	TokenHash   string
	Status      Status
	CreatedAt   time.Time
	ExpiresAt   time.Time
	// Seq is assigned by the store and orders invitations created within
	// the same instant.
	Seq         int64
	ResendCount int

	SignatureImage  string
	SignedAt        *time.Time
	SignerIP        string
	SignerUserAgent string
}

// Direct reports whether the invitation came from the self-sign flow.
func (i Invitation) Direct() bool {
	return i.SignerEmail == common.DirectSignEmail
}

// Effective returns the status as seen at now: a sent invitation past its
// expiry is reported as expired.
func (i Invitation) Effective(now time.Time) Status {
	if i.Status == StatusSent && !now.Before(i.ExpiresAt) {
		return StatusExpired
	}
	return i.Status
}

// Newer reports whether a was issued after b.
func Newer(a, b Invitation) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Seq > b.Seq
}

// HashToken returns the hex blake2b-256 digest under which a token is
// stored. Raw tokens are never persisted.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issuer creates invitations. Zero fields fall back to defaults.
type Issuer struct {
	Validity time.Duration
	Now      func() time.Time
	NewID    func() (string, error)
	NewToken func() (string, error)
}

// IssueInput describes the signer an invitation is for.
type IssueInput struct {
	ContractID string
	Signer     Signer
	// Email overrides Signer.Email, e.g. with common.DirectSignEmail.
	Email string
}

func (is Issuer) defaults() Issuer {
	if is.Validity <= 0 {
		is.Validity = DefaultValidity
	}
	if is.Now == nil {
		is.Now = time.Now
	}
	if is.NewID == nil {
		is.NewID = func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		}
	}
	if is.NewToken == nil {
		is.NewToken = func() (string, error) { return common.MakeRandToken(TokenSize) }
	}
	return is
}

// Issue creates a sent invitation and returns it with the raw token that
// goes into the signing link. previous is the signer's current invitation,
// if any: a resend counts one more than it, and a signer who already signed
// cannot be invited again.
func (is Issuer) Issue(in IssueInput, previous *Invitation) (Invitation, string, error) {
	is = is.defaults()

	if strings.TrimSpace(in.ContractID) == "" || in.Signer.Key == "" {
		return Invitation{}, "", common.ErrorValidation
	}
	if previous != nil && previous.Status == StatusSigned {
		return Invitation{}, "", common.ErrAlreadySigned
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = strings.TrimSpace(in.Signer.Email)
	}
	if email == "" {
		return Invitation{}, "", common.ErrSignerHasNoEmail
	}

	id, err := is.NewID()
	if err != nil {
		return Invitation{}, "", fmt.Errorf("generate invitation id: %w", err)
	}
	token, err := is.NewToken()
	if err != nil {
		return Invitation{}, "", fmt.Errorf("generate invitation token: %w", err)
	}

	resends := 0
	if previous != nil {
		resends = previous.ResendCount + 1
	}

	createdAt := is.Now().UTC()
	return Invitation{
		ID:          id,
		ContractID:  in.ContractID,
		SignerID:    in.Signer.Key,
		SignerType:  in.Signer.Role,
		SignerName:  in.Signer.Name,
		SignerEmail: email,
		TokenHash:   HashToken(token),
		Status:      StatusSent,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(is.Validity),
		ResendCount: resends,
	}, token, nil
}

// Submission is what a signer sends from the signing page.
type Submission struct {
	Image     string
	IP        string
	UserAgent string
}

var signatureImageRe = regexp.MustCompile(`^data:image/(png|jpeg|gif|webp);base64,[A-Za-z0-9+/]+=*$`)

// ValidateSignatureImage checks that image is a base64 data URL of a
// raster image.
func ValidateSignatureImage(image string) error {
	if !signatureImageRe.MatchString(image) {
		return common.ErrInvalidSignatureImage
	}
	return nil
}

// Sign returns inv moved to signed with the submission attached. Signed
// invitations cannot be signed again and expired ones cannot be signed at
// all; in both cases inv is returned unchanged with the error.
func Sign(inv Invitation, sub Submission, now time.Time) (Invitation, error) {
	switch inv.Effective(now) {
	case StatusSigned:
		return inv, common.ErrAlreadySigned
	case StatusExpired:
		return inv, common.ErrTokenExpired
	case StatusSent:
	default:
		return inv, common.ErrInvalidToken
	}
	if err := ValidateSignatureImage(sub.Image); err != nil {
		return inv, err
	}

	signedAt := now.UTC()
	inv.Status = StatusSigned
	inv.SignatureImage = sub.Image
	inv.SignedAt = &signedAt
	inv.SignerIP = sub.IP
	inv.SignerUserAgent = sub.UserAgent
	return inv, nil
}
