// Package signing derives the signers a lease needs, issues and verifies
// their invitations and reports where each signer stands.
package signing

import (
	"strconv"
	"strings"
)

// Role is the part a signer plays in the contract.
type Role string

const (
	RoleLandlord  Role = "landlord"
	RoleTenant    Role = "tenant"
	RoleGuarantor Role = "guarantor"
)

// Identity identifies one required signer within a contract. Key is stable
// across roster builds as long as the signer's ID number, or failing that
// the position and name, stay the same.
type Identity struct {
	Key   string
	Role  Role
	Index int
}

// NewIdentity derives the identity of the index-th (1-based) signer of a
// role. A non-empty natural ID wins; otherwise the key combines the position
// and the normalised name, so two anonymous signers never share a key.
func NewIdentity(role Role, index int, naturalID, name string) Identity {
	key := string(role) + ":" + normalizeKeyPart(naturalID)
	if strings.TrimSpace(naturalID) == "" {
		key = string(role) + "#" + strconv.Itoa(index) + ":" + normalizeKeyPart(name)
	}
	return Identity{Key: key, Role: role, Index: index}
}

func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
