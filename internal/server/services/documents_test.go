package services

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
)

func TestDocumentService_Preview(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", models.StatusDraft, twoTenants())

	html, err := f.documents.Preview(context.Background(), owner, "c1")
	require.NoError(t, err)

	assert.Contains(t, html, "<strong>Dana</strong>")
	assert.Contains(t, html, "<strong>Noa</strong>")
	assert.NotContains(t, html, "[[signature")
	assert.NotContains(t, html, "<img")

	_, err = f.documents.Preview(context.Background(), "intruder", "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDocumentService_DocumentCarriesSignatures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed("c1", models.StatusPaid, twoTenants())
	f.expectTx(1)

	_, err := f.signatures.DirectSign(ctx, owner, "c1", submission())
	require.NoError(t, err)

	html, err := f.documents.Document(ctx, owner, "c1")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(html, "<img"))
	assert.Contains(t, html, `alt="landlord"`)
	assert.NotContains(t, html, "[[signature")
}

func TestDocumentService_PDF(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", models.StatusDraft, twoTenants())

	out, err := f.documents.PDF(context.Background(), owner, "c1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 test", string(out))
	assert.Contains(t, f.renderer.lastHTML, "<!DOCTYPE html>")

	f.renderer.err = errors.New("status 500")
	_, err = f.documents.PDF(context.Background(), owner, "c1")
	assert.EqualError(t, err, "status 500")
}

func TestDocumentService_Archive(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", models.StatusComplete, twoTenants())

	res, err := f.documents.Archive(context.Background(), owner, "c1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Archive.StorageKey, "contracts/c1/2025/03/"))
	assert.Equal(t, "https://objects.example/"+res.Archive.StorageKey+"?sig=1", res.URL)

	sum := blake3.Sum256([]byte("%PDF-1.7 test"))
	assert.Equal(t, hex.EncodeToString(sum[:]), res.Archive.Digest)
	assert.Equal(t, *res.Archive, f.store.archives["c1"])

	f.objects.putErr = errors.New("bucket missing")
	_, err = f.documents.Archive(context.Background(), owner, "c1")
	assert.ErrorContains(t, err, "bucket missing")
}
