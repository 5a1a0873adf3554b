// Package common defines shared constants and sentinel errors used across
// the leasekeeper packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Contract workflow errors.
	ErrInvalidTransition = errors.New("invalid contract status transition")
	ErrAnswersLocked     = errors.New("answers cannot be changed at this stage")

	// Signer errors.
	ErrSignerNotFound   = errors.New("signer not found")
	ErrSignerHasNoEmail = errors.New("signer has no email address")

	// Invitation token errors.
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrAlreadySigned = errors.New("already signed")

	// Signature submission errors.
	ErrInvalidSignatureImage = errors.New("invalid signature image")
)
