package signing

// Dedup splits invitations into the newest one per signer identity and the
// stale duplicates that it supersedes. Kept invitations retain their input
// order.
func Dedup(invitations []Invitation) (kept, stale []Invitation) {
	latest := Latest(invitations)
	for _, inv := range invitations {
		if cur := latest[groupKey(inv)]; cur.ID == inv.ID {
			kept = append(kept, inv)
			continue
		}
		stale = append(stale, inv)
	}
	return kept, stale
}

// IDs returns the IDs of the invitations.
func IDs(invitations []Invitation) []string {
	ids := make([]string, len(invitations))
	for i, inv := range invitations {
		ids[i] = inv.ID
	}
	return ids
}
