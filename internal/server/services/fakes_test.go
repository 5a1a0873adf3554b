package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/dbx"
	"github.com/dmitrijs2005/leasekeeper/internal/lease"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/server/config"
	"github.com/dmitrijs2005/leasekeeper/internal/server/mail"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/archives"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/contracts"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/invitations"
	"github.com/dmitrijs2005/leasekeeper/internal/server/templates"
	"github.com/dmitrijs2005/leasekeeper/internal/signing"
	"github.com/stretchr/testify/require"
)

// --- in-memory repositories ---

type memStore struct {
	mu          sync.Mutex
	contracts   map[string]models.Contract
	invitations []signing.Invitation
	archives    map[string]models.Archive
	seq         int64

	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{
		contracts: map[string]models.Contract{},
		archives:  map[string]models.Archive{},
	}
}

type memManager struct{ s *memStore }

func (m memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memManager) Contracts(dbx.DBTX) contracts.Repository      { return memContracts{m.s} }
func (m memManager) Invitations(dbx.DBTX) invitations.Repository  { return memInvitations{m.s} }
func (m memManager) Archives(dbx.DBTX) archives.Repository        { return memArchives{m.s} }

type memContracts struct{ s *memStore }

func (r memContracts) Create(ctx context.Context, c *models.Contract) (*models.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *c
	out.CreatedAt = time.Now().UTC()
	out.UpdatedAt = out.CreatedAt
	r.s.contracts[c.ID] = out
	return &out, nil
}

func (r memContracts) Get(ctx context.Context, id string) (*models.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r memContracts) GetForUpdate(ctx context.Context, id string) (*models.Contract, error) {
	return r.Get(ctx, id)
}

func (r memContracts) UpdateAnswers(ctx context.Context, id string, answers lease.Answers) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return common.ErrorNotFound
	}
	if !c.Status.AnswersEditable() {
		return common.ErrAnswersLocked
	}
	c.Answers = answers
	r.s.contracts[id] = c
	return nil
}

func (r memContracts) UpdateStatus(ctx context.Context, id string, from, to models.ContractStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok || c.Status != from {
		return common.ErrInvalidTransition
	}
	c.Status = to
	r.s.contracts[id] = c
	return nil
}

type memInvitations struct{ s *memStore }

func (r memInvitations) Create(ctx context.Context, inv *signing.Invitation) (*signing.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	out := *inv
	out.Seq = r.s.seq
	r.s.invitations = append(r.s.invitations, out)
	return &out, nil
}

func (r memInvitations) filter(keep func(signing.Invitation) bool) []signing.Invitation {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []signing.Invitation
	for _, inv := range r.s.invitations {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return signing.Newer(out[j], out[i]) })
	return out
}

func (r memInvitations) ListByContract(ctx context.Context, contractID string) ([]signing.Invitation, error) {
	return r.filter(func(inv signing.Invitation) bool { return inv.ContractID == contractID }), nil
}

func (r memInvitations) ListBySigner(ctx context.Context, contractID string, signerType signing.Role, signerID string) ([]signing.Invitation, error) {
	return r.filter(func(inv signing.Invitation) bool {
		return inv.ContractID == contractID && inv.SignerType == signerType && inv.SignerID == signerID
	}), nil
}

func (r memInvitations) FindByTokenHash(ctx context.Context, tokenHash string) (*signing.Invitation, error) {
	found := r.filter(func(inv signing.Invitation) bool { return inv.TokenHash == tokenHash })
	if len(found) == 0 {
		return nil, common.ErrInvalidToken
	}
	return &found[0], nil
}

func (r memInvitations) MarkSigned(ctx context.Context, inv *signing.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, cur := range r.s.invitations {
		if cur.ID == inv.ID && cur.Status == signing.StatusSent {
			seq := cur.Seq
			r.s.invitations[i] = *inv
			r.s.invitations[i].Seq = seq
			return nil
		}
	}
	return common.ErrAlreadySigned
}

func (r memInvitations) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteErr != nil {
		return 0, r.s.deleteErr
	}
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.s.invitations[:0]
	for _, inv := range r.s.invitations {
		if !drop[inv.ID] {
			kept = append(kept, inv)
		}
	}
	n := int64(len(r.s.invitations) - len(kept))
	r.s.invitations = kept
	return n, nil
}

func (r memInvitations) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type memArchives struct{ s *memStore }

func (r memArchives) Save(ctx context.Context, a *models.Archive) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.archives[a.ContractID] = *a
	return nil
}

func (r memArchives) Get(ctx context.Context, contractID string) (*models.Archive, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.archives[contractID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

// --- collaborators ---

type fakeRenderer struct {
	out      []byte
	err      error
	calls    int
	lastHTML string
}

func (f *fakeRenderer) Render(ctx context.Context, html, css string) ([]byte, error) {
	f.calls++
	f.lastHTML = html
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeObjects struct {
	puts   map[string][]byte
	putErr error
}

func (f *fakeObjects) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = body
	return nil
}

func (f *fakeObjects) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://objects.example/" + key + "?sig=1", nil
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// --- fixture ---

const testTemplate = `Between {{landlordName}}
and {{tenantName}} {{@tenant-line}}

Landlord: {{landlordName}}
____________________

{{@tenant-signature}}Tenant: {{tenantName}}
[[signature:tenant]]
`

const (
	owner     = "owner-1"
	testImage = "data:image/png;base64,iVBORw0KGgo="

	landlordKey = "landlord:111"
	aviKey      = "tenant:222"
	noaKey      = "tenant#2:noa"
)

func twoTenants() lease.Answers {
	return lease.Answers{
		"landlords": []any{map[string]any{"name": "Dana", "idNumber": "111", "email": "dana@example.com"}},
		"tenants": []any{
			map[string]any{"name": "Avi", "idNumber": "222", "email": "avi@example.com"},
			map[string]any{"name": "Noa", "email": "noa@example.com"},
		},
	}
}

type fixture struct {
	mock       sqlmock.Sqlmock
	store      *memStore
	renderer   *fakeRenderer
	objects    *fakeObjects
	sender     *fakeSender
	contracts  *ContractService
	documents  *DocumentService
	signatures *SignatureService
	now        time.Time
	tokens     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		mock:     mock,
		store:    newMemStore(),
		renderer: &fakeRenderer{out: []byte("%PDF-1.7 test")},
		objects:  &fakeObjects{},
		sender:   &fakeSender{},
		now:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	cfg := &config.Config{
		PublicBaseURL:      "https://lease.example/",
		InvitationValidity: signing.DefaultValidity,
	}
	rm := memManager{f.store}
	logger := logging.NewNopLogger()

	f.contracts = NewContractService(db, rm, cfg, logger)
	f.documents = NewDocumentService(db, rm, cfg, logger, templates.StaticSource(testTemplate), f.renderer, f.objects)
	f.signatures = NewSignatureService(db, rm, cfg, logger, f.documents, f.sender)

	clock := func() time.Time { return f.now }
	f.documents.now = clock
	f.signatures.now = clock
	f.signatures.issuer.NewToken = func() (string, error) {
		f.tokens++
		return fmt.Sprintf("tok-%d", f.tokens), nil
	}
	return f
}

// seed stores a contract directly in the given status.
func (f *fixture) seed(id string, status models.ContractStatus, answers lease.Answers) {
	f.store.contracts[id] = models.Contract{ID: id, OwnerID: owner, Answers: answers, Status: status}
}

// expectTx registers n committed transactions.
func (f *fixture) expectTx(n int) {
	for i := 0; i < n; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}
}
