package core

// Owned is implemented by every ledger entity.
type Owned interface {
	Owner() string
}

// OwnedBy reports whether r belongs to ownerID. An empty owner never matches.
func OwnedBy(r Owned, ownerID string) bool {
	if r == nil || ownerID == "" {
		return false
	}
	return r.Owner() == ownerID
}

// CheckOwnership returns ErrNotOwned when r does not belong to ownerID.
func CheckOwnership(r Owned, kind, id, ownerID string) error {
	if !OwnedBy(r, ownerID) {
		return NotOwned(kind, id)
	}
	return nil
}
