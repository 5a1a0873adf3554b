package httpapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/signing"
	"github.com/go-chi/chi/v5"
)

type contractResponse struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Answers   lease.Answers `json:"answers"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func toContractResponse(c *models.Contract) contractResponse {
	return contractResponse{
		ID:        c.ID,
		Status:    string(c.Status),
		Answers:   c.Answers,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type answersRequest struct {
	Answers lease.Answers `json:"answers"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type signatureRequest struct {
	SignatureImage string `json:"signatureImage"`
}

type signResponse struct {
	Status    string `json:"status"`
	Completed bool   `json:"completed"`
	Message   string `json:"message"`
}

type signerResponse struct {
	Key         string     `json:"key"`
	Role        string     `json:"role"`
	Label       string     `json:"label"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Status      string     `json:"status"`
	InvitedAt   *time.Time `json:"invitedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	SignedAt    *time.Time `json:"signedAt,omitempty"`
	ResendCount int        `json:"resendCount"`
}

type inviteResponse struct {
	InvitationID string    `json:"invitationId"`
	Link         string    `json:"link"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expiresAt"`
	ResendCount  int       `json:"resendCount"`
	EmailSent    bool      `json:"emailSent"`
	EmailError   string    `json:"emailError,omitempty"`
	Message      string    `json:"message"`
}

type signerViewResponse struct {
	ContractID string    `json:"contractId"`
	Label      string    `json:"label"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expiresAt"`
	HTML       string    `json:"html"`
}

type archiveResponse struct {
	StorageKey string `json:"storageKey"`
	Digest     string `json:"digest"`
	Size       int64  `json:"size"`
	URL        string `json:"url"`
}

// fail writes the error response; unexpected errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if lookupError(err).status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "request_id", requestIDFrom(r.Context()),
			"error", err)
	}
	writeError(w, r, err)
}

func (s *Server) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.contracts.Create(r.Context(), ownerIDFrom(r.Context()), req.Answers)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractResponse(c))
}

func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	c, err := s.contracts.Get(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractResponse(c))
}

func (s *Server) handleUpdateAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.contracts.UpdateAnswers(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractResponse(c))
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.contracts.Transition(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"),
		models.ContractStatus(req.Status))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractResponse(c))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	html, err := s.documents.Preview(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeHTML(w, html)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	html, err := s.documents.Document(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeHTML(w, html)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.documents.PDF(r.Context(), ownerIDFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="lease-`+id+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	res, err := s.documents.Archive(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, archiveResponse{
		StorageKey: res.Archive.StorageKey,
		Digest:     res.Archive.Digest,
		Size:       res.Archive.Size,
		URL:        res.URL,
	})
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := s.signatures.Roster(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]signerResponse, 0, len(roster))
	for _, e := range roster {
		item := signerResponse{
			Key:    e.Key,
			Role:   string(e.Role),
			Label:  e.Label,
			Name:   e.Name,
			Email:  e.Email,
			Status: string(e.Status),
		}
		if inv := e.Invitation; inv != nil {
			invited, expires := inv.CreatedAt, inv.ExpiresAt
			item.InvitedAt = &invited
			item.ExpiresAt = &expires
			item.SignedAt = inv.SignedAt
			item.ResendCount = inv.ResendCount
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "signerKey")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	res, err := s.signatures.Invite(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	msg := "Invitation sent."
	if !res.EmailSent {
		msg = "Invitation created, but the email could not be sent. Share the link directly."
	}
	writeJSON(w, http.StatusCreated, inviteResponse{
		InvitationID: res.Invitation.ID,
		Link:         res.Link,
		Status:       string(res.Invitation.Status),
		ExpiresAt:    res.Invitation.ExpiresAt,
		ResendCount:  res.Invitation.ResendCount,
		EmailSent:    res.EmailSent,
		EmailError:   res.EmailError,
		Message:      msg,
	})
}

func (s *Server) handleDirectSign(w http.ResponseWriter, r *http.Request) {
	var req signatureRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.signatures.DirectSign(r.Context(), ownerIDFrom(r.Context()), chi.URLParam(r, "id"),
		s.submission(r, req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, signResponse{
		Status:    string(res.Invitation.Status),
		Completed: res.Completed,
		Message:   "Your signature has been recorded.",
	})
}

func (s *Server) handleSignerView(w http.ResponseWriter, r *http.Request) {
	view, err := s.signatures.SignerView(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, signerViewResponse{
		ContractID: view.ContractID,
		Label:      view.Label,
		Name:       view.Name,
		Status:     string(view.Status),
		ExpiresAt:  view.ExpiresAt,
		HTML:       view.HTML,
	})
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req signatureRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.signatures.Sign(r.Context(), chi.URLParam(r, "token"), s.submission(r, req))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	msg := "Thank you, your signature has been recorded."
	if res.Completed {
		msg = "Thank you, your signature has been recorded. All parties have now signed."
	}
	writeJSON(w, http.StatusOK, signResponse{
		Status:    string(res.Invitation.Status),
		Completed: res.Completed,
		Message:   msg,
	})
}

func (s *Server) submission(r *http.Request, req signatureRequest) signing.Submission {
	return signing.Submission{
		Image:     req.SignatureImage,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}
