package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("owner-123", secret, time.Hour)
	require.NoError(t, err)

	got, err := GetOwnerIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "owner-123", got)
}

func TestGetOwnerIDFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("o1", secret, -time.Second)
	require.NoError(t, err)

	_, err = GetOwnerIDFromToken(tok, secret)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Contains(t, err.Error(), "expired")
}

func TestGetOwnerIDFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("o2", []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = GetOwnerIDFromToken(tok, []byte("wrong-secret"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestGetOwnerIDFromToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{OwnerID: "o3"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = GetOwnerIDFromToken(tok, []byte("secret"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestGetOwnerIDFromToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := GetOwnerIDFromToken("not-a-token", []byte("s"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	tok, err := GenerateToken("", []byte("s"), time.Hour)
	require.NoError(t, err)
	_, err = GetOwnerIDFromToken(tok, []byte("s"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
