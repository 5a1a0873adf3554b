// Package auth issues and checks the bearer tokens of contract owners.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the owner the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"oid"`
}

func GenerateToken(ownerID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		OwnerID: ownerID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetOwnerIDFromToken validates the token and returns its owner. Every
// failure wraps common.ErrorUnauthorized.
func GetOwnerIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", common.ErrorUnauthorized)
		}
		return "", fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}

	if !token.Valid || claims.OwnerID == "" {
		return "", common.ErrorUnauthorized
	}

	return claims.OwnerID, nil
}
