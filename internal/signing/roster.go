package signing

import (
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/lease"
)

// MaxGuarantors is the most guarantors a contract can name.
const MaxGuarantors = 2

// Signer is one party whose signature the contract needs.
type Signer struct {
	Identity
	// Label tags the party's signature slot: "landlord", "tenant",
	// "tenant 2", "guarantor 1".
	Label    string
	Name     string
	IDNumber string
	Email    string
	Phone    string
}

// RosterEntry is a signer joined with their authoritative invitation.
type RosterEntry struct {
	Signer
	Status     Status
	Invitation *Invitation
}

// RequiredSigners lists the parties of a contract in a stable order:
// the landlord, each tenant, then up to MaxGuarantors guarantors as set by
// guarantorsCount. Parties without a name are left out.
func RequiredSigners(answers lease.Answers) []Signer {
	a := answers.Normalize()
	var out []Signer

	landlord := a.Landlords()[0]
	out = append(out, newSigner(RoleLandlord, 1, string(RoleLandlord), landlord))

	tenants := a.Tenants()
	for i, t := range tenants {
		out = append(out, newSigner(RoleTenant, i+1, lease.TenantLabel(i+1, len(tenants)), t))
	}

	for i := 1; i <= guarantorsCount(a); i++ {
		prefix := "guarantor" + strconv.Itoa(i)
		g := lease.Entity{
			Name:     a.String(prefix + "Name"),
			IDNumber: a.String(prefix + "IdNumber"),
			Email:    a.String(prefix + "Email"),
			Phone:    a.String(prefix + "Phone"),
		}
		out = append(out, newSigner(RoleGuarantor, i, GuarantorLabel(i), g))
	}

	named := out[:0]
	for _, s := range out {
		if s.Name != "" {
			named = append(named, s)
		}
	}
	return named
}

// GuarantorLabel returns the label of the i-th guarantor.
func GuarantorLabel(i int) string {
	return string(RoleGuarantor) + " " + strconv.Itoa(i)
}

func newSigner(role Role, index int, label string, e lease.Entity) Signer {
	return Signer{
		Identity: NewIdentity(role, index, e.IDNumber, e.Name),
		Label:    label,
		Name:     strings.TrimSpace(e.Name),
		IDNumber: e.IDNumber,
		Email:    e.Email,
		Phone:    e.Phone,
	}
}

func guarantorsCount(a lease.Answers) int {
	n, err := strconv.Atoi(a.String("guarantorsCount"))
	if err != nil || n < 0 {
		return 0
	}
	if n > MaxGuarantors {
		return MaxGuarantors
	}
	return n
}

// Latest returns the newest invitation per signer identity, keyed by
// Identity.Key. Invitations are matched by signer type and key, never by
// position.
func Latest(invitations []Invitation) map[string]Invitation {
	latest := make(map[string]Invitation, len(invitations))
	for _, inv := range invitations {
		k := groupKey(inv)
		if cur, ok := latest[k]; !ok || Newer(inv, cur) {
			latest[k] = inv
		}
	}
	return latest
}

func groupKey(inv Invitation) string {
	return identityKey(inv.SignerType, inv.SignerID)
}

func identityKey(role Role, key string) string {
	return string(role) + "|" + key
}

// BuildRoster joins the signers a contract needs with their newest
// invitations and reports each status as of now. Signers without an
// invitation are not_sent.
func BuildRoster(answers lease.Answers, invitations []Invitation, now time.Time) []RosterEntry {
	latest := Latest(invitations)
	signers := RequiredSigners(answers)

	roster := make([]RosterEntry, 0, len(signers))
	for _, s := range signers {
		entry := RosterEntry{Signer: s, Status: StatusNotSent}
		if inv, ok := latest[identityKey(s.Role, s.Key)]; ok {
			entry.Invitation = &inv
			entry.Status = inv.Effective(now)
		}
		roster = append(roster, entry)
	}
	return roster
}

// Find returns the roster entry with the given identity key.
func Find(roster []RosterEntry, key string) (RosterEntry, bool) {
	for _, e := range roster {
		if e.Key == key {
			return e, true
		}
	}
	return RosterEntry{}, false
}

// AllSigned reports whether every entry of a non-empty roster has signed.
func AllSigned(roster []RosterEntry) bool {
	if len(roster) == 0 {
		return false
	}
	for _, e := range roster {
		if e.Status != StatusSigned {
			return false
		}
	}
	return true
}
