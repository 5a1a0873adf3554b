package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
)

// maxBodyBytes bounds request bodies; signature images are the largest.
const maxBodyBytes = 2 << 20

type apiError struct {
	err     error
	status  int
	code    string
	message string
}

// errorTable maps domain errors to responses. Sign failures carry messages
// meant for the signer.
var errorTable = []apiError{
	{common.ErrInvalidToken, http.StatusNotFound, "invalid_link", "This signing link is not valid."},
	{common.ErrTokenExpired, http.StatusGone, "link_expired", "This signing link has expired. Ask the landlord for a new one."},
	{common.ErrAlreadySigned, http.StatusConflict, "already_signed", "This contract has already been signed with this link."},
	{common.ErrInvalidSignatureImage, http.StatusBadRequest, "invalid_signature_image", "The signature image could not be read."},
	{common.ErrSignerNotFound, http.StatusNotFound, "signer_not_found", "No such signer on this contract."},
	{common.ErrSignerHasNoEmail, http.StatusUnprocessableEntity, "signer_has_no_email", "The signer has no email address."},
	{common.ErrInvalidTransition, http.StatusConflict, "invalid_transition", "The contract is not at a stage that allows this."},
	{common.ErrAnswersLocked, http.StatusConflict, "answers_locked", "The answers can no longer be changed."},
	{common.ErrorValidation, http.StatusBadRequest, "validation_error", "The request is not valid."},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication required."},
	{common.ErrorNotFound, http.StatusNotFound, "not_found", "Not found."},
}

var internalError = apiError{status: http.StatusInternalServerError, code: "internal_error", message: "Internal error."}

func lookupError(err error) apiError {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e
		}
	}
	return internalError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := lookupError(err)
	writeJSON(w, e.status, map[string]any{
		"request_id": requestIDFrom(r.Context()),
		"error": map[string]any{
			"code":    e.code,
			"message": e.message,
		},
	})
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}
