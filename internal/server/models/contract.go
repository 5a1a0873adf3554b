// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/lease"
)

// ContractStatus is the stage of the owner's wizard session.
type ContractStatus string

const (
	StatusDraft    ContractStatus = "draft"
	StatusSummary  ContractStatus = "summary"
	StatusPaid     ContractStatus = "paid"
	StatusSigning  ContractStatus = "signing"
	StatusComplete ContractStatus = "complete"
)

var transitions = map[ContractStatus][]ContractStatus{
	StatusDraft:   {StatusSummary},
	StatusSummary: {StatusDraft, StatusPaid},
	StatusPaid:    {StatusSigning},
	StatusSigning: {StatusComplete},
}

// Valid reports whether s is a known status.
func (s ContractStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSummary, StatusPaid, StatusSigning, StatusComplete:
		return true
	}
	return false
}

// CanTransition reports whether a contract may move from s to next.
func (s ContractStatus) CanTransition(next ContractStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is allowed and
// common.ErrInvalidTransition otherwise.
func (s ContractStatus) Transition(next ContractStatus) (ContractStatus, error) {
	if !s.CanTransition(next) {
		return s, common.ErrInvalidTransition
	}
	return next, nil
}

// AnswersEditable reports whether the questionnaire can still be changed.
func (s ContractStatus) AnswersEditable() bool {
	return s == StatusDraft || s == StatusSummary
}

// Contract is one lease being prepared by an owner.
type Contract struct {
	ID        string
	OwnerID   string
	Answers   lease.Answers
	Status    ContractStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Archive records a signed contract stored in object storage.
type Archive struct {
	ContractID string
	StorageKey string
	// Digest is the hex BLAKE3 hash of the stored PDF.
	Digest    string
	Size      int64
	CreatedAt time.Time
}
