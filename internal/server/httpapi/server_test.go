package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/server/auth"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/services"
	"github.com/dmitrijs2005/leasekeeper/internal/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

// ---- fakes ----

type fakeContracts struct {
	contract *models.Contract
	err      error
	owner    string
	answers  lease.Answers
	status   models.ContractStatus
}

func (f *fakeContracts) Create(ctx context.Context, ownerID string, answers lease.Answers) (*models.Contract, error) {
	f.owner, f.answers = ownerID, answers
	return f.contract, f.err
}

func (f *fakeContracts) Get(ctx context.Context, ownerID, contractID string) (*models.Contract, error) {
	f.owner = ownerID
	return f.contract, f.err
}

func (f *fakeContracts) UpdateAnswers(ctx context.Context, ownerID, contractID string, answers lease.Answers) (*models.Contract, error) {
	f.answers = answers
	return f.contract, f.err
}

func (f *fakeContracts) Transition(ctx context.Context, ownerID, contractID string, to models.ContractStatus) (*models.Contract, error) {
	f.status = to
	return f.contract, f.err
}

type fakeDocuments struct {
	html    string
	pdf     []byte
	archive *services.ArchiveResult
	err     error
}

func (f *fakeDocuments) Preview(ctx context.Context, ownerID, contractID string) (string, error) {
	return f.html, f.err
}

func (f *fakeDocuments) Document(ctx context.Context, ownerID, contractID string) (string, error) {
	return f.html, f.err
}

func (f *fakeDocuments) PDF(ctx context.Context, ownerID, contractID string) ([]byte, error) {
	return f.pdf, f.err
}

func (f *fakeDocuments) Archive(ctx context.Context, ownerID, contractID string) (*services.ArchiveResult, error) {
	return f.archive, f.err
}

type fakeSignatures struct {
	roster    []signing.RosterEntry
	invite    *services.InviteResult
	view      *services.SignerView
	sign      *services.SignResult
	err       error
	signerKey string
	token     string
	sub       signing.Submission
}

func (f *fakeSignatures) Roster(ctx context.Context, ownerID, contractID string) ([]signing.RosterEntry, error) {
	return f.roster, f.err
}

func (f *fakeSignatures) Invite(ctx context.Context, ownerID, contractID, signerKey string) (*services.InviteResult, error) {
	f.signerKey = signerKey
	return f.invite, f.err
}

func (f *fakeSignatures) DirectSign(ctx context.Context, ownerID, contractID string, sub signing.Submission) (*services.SignResult, error) {
	f.sub = sub
	return f.sign, f.err
}

func (f *fakeSignatures) SignerView(ctx context.Context, token string) (*services.SignerView, error) {
	f.token = token
	return f.view, f.err
}

func (f *fakeSignatures) Sign(ctx context.Context, token string, sub signing.Submission) (*services.SignResult, error) {
	f.token, f.sub = token, sub
	return f.sign, f.err
}

type env struct {
	contracts  *fakeContracts
	documents  *fakeDocuments
	signatures *fakeSignatures
	handler    http.Handler
}

func newEnv() *env {
	e := &env{
		contracts:  &fakeContracts{},
		documents:  &fakeDocuments{},
		signatures: &fakeSignatures{},
	}
	s := NewServer(":0", logging.NewNopLogger(), secret, e.contracts, e.documents, e.signatures)
	e.handler = s.Router()
	return e
}

func (e *env) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, ownerID string) map[string]string {
	t.Helper()
	tok, err := auth.GenerateToken(ownerID, []byte(secret), time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

type errorBody struct {
	RequestID string `json:"request_id"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ---- tests ----

func TestHealth(t *testing.T) {
	rec := newEnv().do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_"))
}

func TestOwnerAuth(t *testing.T) {
	e := newEnv()

	rec := e.do(t, http.MethodGet, "/api/contracts/c1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "unauthorized", body.Error.Code)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body.RequestID)

	rec = e.do(t, http.MethodGet, "/api/contracts/c1", "", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	e.contracts.contract = &models.Contract{ID: "c1", Status: models.StatusDraft}
	rec = e.do(t, http.MethodGet, "/api/contracts/c1", "", bearer(t, "owner-7"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-7", e.contracts.owner)
}

func TestCreateAndUpdateContract(t *testing.T) {
	e := newEnv()
	e.contracts.contract = &models.Contract{ID: "c1", Status: models.StatusDraft, Answers: lease.Answers{"rent": "900"}}

	rec := e.do(t, http.MethodPost, "/api/contracts", `{"answers":{"rent":"900"}}`, bearer(t, "o1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "900", e.contracts.answers["rent"])

	var got contractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "draft", got.Status)

	rec = e.do(t, http.MethodPut, "/api/contracts/c1/answers", `{"unknown":1}`, bearer(t, "o1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Error.Code)

	e.contracts.err = common.ErrAnswersLocked
	rec = e.do(t, http.MethodPut, "/api/contracts/c1/answers", `{"answers":{}}`, bearer(t, "o1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "answers_locked", decodeError(t, rec).Error.Code)
}

func TestTransition(t *testing.T) {
	e := newEnv()
	e.contracts.contract = &models.Contract{ID: "c1", Status: models.StatusSummary}

	rec := e.do(t, http.MethodPost, "/api/contracts/c1/status", `{"status":"summary"}`, bearer(t, "o1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusSummary, e.contracts.status)

	e.contracts.err = common.ErrInvalidTransition
	rec = e.do(t, http.MethodPost, "/api/contracts/c1/status", `{"status":"complete"}`, bearer(t, "o1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDocuments(t *testing.T) {
	e := newEnv()
	e.documents.html = "<p><strong>Dana</strong></p>"
	e.documents.pdf = []byte("%PDF-1.7")
	e.documents.archive = &services.ArchiveResult{
		Archive: &models.Archive{ContractID: "c1", StorageKey: "contracts/c1/x.pdf", Digest: "ab", Size: 8},
		URL:     "https://objects.example/x",
	}

	rec := e.do(t, http.MethodGet, "/api/contracts/c1/preview", "", bearer(t, "o1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, e.documents.html, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/contracts/c1/document", "", bearer(t, "o1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/contracts/c1/pdf", "", bearer(t, "o1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "lease-c1.pdf")
	assert.Equal(t, "%PDF-1.7", rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/contracts/c1/archive", "", bearer(t, "o1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"storageKey":"contracts/c1/x.pdf","digest":"ab","size":8,"url":"https://objects.example/x"}`,
		rec.Body.String())

	e.documents.err = errors.New("render pdf: status 502")
	rec = e.do(t, http.MethodGet, "/api/contracts/c1/pdf", "", bearer(t, "o1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Error.Code)
}

func TestRosterAndInvite(t *testing.T) {
	e := newEnv()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e.signatures.roster = []signing.RosterEntry{
		{
			Signer: signing.Signer{Identity: signing.Identity{Key: "tenant:222", Role: signing.RoleTenant, Index: 1}, Label: "tenant", Name: "Avi"},
			Status: signing.StatusSent,
			Invitation: &signing.Invitation{
				CreatedAt: created,
				ExpiresAt: created.Add(signing.DefaultValidity),
			},
		},
		{
			Signer: signing.Signer{Identity: signing.Identity{Key: "landlord:111", Role: signing.RoleLandlord, Index: 1}, Label: "landlord", Name: "Dana"},
			Status: signing.StatusNotSent,
		},
	}

	rec := e.do(t, http.MethodGet, "/api/contracts/c1/signers", "", bearer(t, "o1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var roster []signerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roster))
	require.Len(t, roster, 2)
	assert.Equal(t, "sent", roster[0].Status)
	require.NotNil(t, roster[0].ExpiresAt)
	assert.True(t, roster[0].ExpiresAt.Equal(created.Add(signing.DefaultValidity)))
	assert.Equal(t, "not_sent", roster[1].Status)
	assert.Nil(t, roster[1].InvitedAt)

	e.signatures.invite = &services.InviteResult{
		Invitation: signing.Invitation{ID: "i1", Status: signing.StatusSent},
		Link:       "https://lease.example/signature/tok",
		EmailError: "provider unavailable",
	}
	rec = e.do(t, http.MethodPost, "/api/contracts/c1/signers/tenant%232:noa/invite", "", bearer(t, "o1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "tenant#2:noa", e.signatures.signerKey)

	var inv inviteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.False(t, inv.EmailSent)
	assert.Equal(t, "provider unavailable", inv.EmailError)
	assert.Contains(t, inv.Message, "could not be sent")

	e.signatures.err = common.ErrSignerHasNoEmail
	rec = e.do(t, http.MethodPost, "/api/contracts/c1/signers/landlord:111/invite", "", bearer(t, "o1"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSigningPage(t *testing.T) {
	e := newEnv()
	e.signatures.view = &services.SignerView{ContractID: "c1", Label: "tenant 2", Name: "Noa", Status: signing.StatusSent, HTML: "<p>x</p>"}
	e.signatures.sign = &services.SignResult{Invitation: signing.Invitation{Status: signing.StatusSigned}, Completed: true}

	rec := e.do(t, http.MethodGet, "/signature/tok-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-1", e.signatures.token)
	var view signerViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "tenant 2", view.Label)

	rec = e.do(t, http.MethodPost, "/signature/tok-1", `{"signatureImage":"data:image/png;base64,AAAA"}`, map[string]string{
		"X-Forwarded-For": "198.51.100.4, 10.0.0.1",
		"User-Agent":      "Mozilla/5.0",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "198.51.100.4", e.signatures.sub.IP)
	assert.Equal(t, "Mozilla/5.0", e.signatures.sub.UserAgent)
	assert.Equal(t, "data:image/png;base64,AAAA", e.signatures.sub.Image)

	var res signResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Completed)
	assert.Equal(t, "signed", res.Status)
}

func TestSigningErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{common.ErrInvalidToken, http.StatusNotFound, "invalid_link"},
		{common.ErrTokenExpired, http.StatusGone, "link_expired"},
		{common.ErrAlreadySigned, http.StatusConflict, "already_signed"},
		{common.ErrInvalidSignatureImage, http.StatusBadRequest, "invalid_signature_image"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := newEnv()
			e.signatures.err = tt.err

			rec := e.do(t, http.MethodPost, "/signature/tok", `{"signatureImage":"x"}`, nil)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestDirectSign(t *testing.T) {
	e := newEnv()
	e.signatures.sign = &services.SignResult{Invitation: signing.Invitation{Status: signing.StatusSigned}}

	rec := e.do(t, http.MethodPost, "/api/contracts/c1/sign-direct", `{"signatureImage":"data:image/png;base64,AAAA"}`,
		bearer(t, "o1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "192.0.2.1", e.signatures.sub.IP)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.9:5555"
	assert.Equal(t, "192.0.2.9", clientIP(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.5 ")
	assert.Equal(t, "203.0.113.5", clientIP(r))
}

func TestParseBearer(t *testing.T) {
	tok, ok := parseBearer("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = parseBearer("Basic abc")
	assert.False(t, ok)
	_, ok = parseBearer("Bearer ")
	assert.False(t, ok)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", logging.NewNopLogger(), secret, &fakeContracts{}, &fakeDocuments{}, &fakeSignatures{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
