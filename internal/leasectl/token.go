package leasectl

import (
	"fmt"

	"github.com/dmitrijs2005/leasekeeper/internal/server/auth"
)

func (a *App) token(args []string) error {
	fs := a.flagSet("token")
	owner := fs.StringP("owner", "o", "", "owner ID to put into the token")
	ttl := fs.Duration("ttl", a.env.TokenValidity, "token lifetime (LEASE_ACCESS_TOKEN_VALIDITY)")
	secret := fs.String("secret", a.env.SecretKey, "signing secret (LEASE_SECRET_KEY)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *owner == "" {
		return fmt.Errorf("%w: --owner is required", ErrUsage)
	}

	tok, err := auth.GenerateToken(*owner, []byte(*secret), *ttl)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	_, err = fmt.Fprintln(a.stdout, tok)
	return err
}
