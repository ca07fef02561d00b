package store

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
)

// Rename changes d's leading RDN in place (ModifyDN without a new
// superior). The new RDN's attribute/value is added to the entry if
// absent; the old RDN's attribute/value is retained iff deleteOldRDN is
// false.
func (s *Store) Rename(d dn.DN, newRDN dn.RDN, deleteOldRDN bool, requestorDN string) error {
	return s.relocate(d, nil, &newRDN, deleteOldRDN, requestorDN)
}

// Move changes d's parent, keeping its RDN unchanged.
func (s *Store) Move(d dn.DN, newSuperior dn.DN) error {
	return s.relocate(d, &newSuperior, nil, false, "")
}

// MoveAndRename changes both d's parent and its leading RDN in one atomic
// commit: a combined move+rename is a single atomic change, not
// rename-then-move.
func (s *Store) MoveAndRename(d dn.DN, newSuperior dn.DN, newRDN dn.RDN, deleteOldRDN bool, requestorDN string) error {
	return s.relocate(d, &newSuperior, &newRDN, deleteOldRDN, requestorDN)
}

// relocate is the shared engine behind Rename/Move/MoveAndRename. newSuperior
// nil means "keep current parent"; newRDN nil means "keep current RDN".
func (s *Store) relocate(d dn.DN, newSuperior *dn.DN, newRDN *dn.RDN, deleteOldRDN bool, requestorDN string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldNormDN := s.normDN(d)
	oldNdnStr := oldNormDN.Render(dn.StyleNormalized)
	id, ok := s.ix.ndn[oldNdnStr]
	if !ok {
		return obaerr.New(obaerr.KindNoSuchEntry, "store.relocate", d.String())
	}
	oldParentID := s.ix.parent[id]
	targetParentID := oldParentID

	var parentUserDN, parentNormDN dn.DN
	if newSuperior != nil {
		parentNormDN = s.normDN(*newSuperior)
		pid, ok := s.ix.ndn[parentNormDN.Render(dn.StyleNormalized)]
		if !ok {
			return obaerr.New(obaerr.KindNoSuchEntry, "store.relocate", newSuperior.String())
		}
		if _, isAlias := s.ix.alias[pid]; isAlias {
			return obaerr.New(obaerr.KindAliasProblem, "store.relocate", newSuperior.String())
		}
		targetParentID = pid
		parentUserDN = s.ix.updn[pid]
	} else {
		parentUserDN = d.Parent()
		parentNormDN = oldNormDN.Parent()
	}

	old := s.master[id]
	leafUser := old.UserDN.RDN()
	leafNorm := oldNormDN.RDN()
	if newRDN != nil {
		leafUser = *newRDN
		leafNorm = s.normDN(dn.DN{RDNs: []dn.RDN{*newRDN}}).RDN()
	}

	newUserDN := parentUserDN.Child(leafUser)
	newNormDN := parentNormDN.Child(leafNorm)
	newNdnStr := newNormDN.Render(dn.StyleNormalized)
	if newNdnStr != oldNdnStr {
		if _, exists := s.ix.ndn[newNdnStr]; exists {
			return obaerr.New(obaerr.KindAlreadyExists, "store.relocate", newUserDN.String())
		}
	}

	// Snapshot the descendant set before any mutation so the tree walk
	// sees a consistent picture.
	descendants := s.collectDescendants(id)

	if newRDN != nil {
		scratch := old.Clone()
		for _, atv := range newRDN.ATVs {
			oid, userName := s.resolveAttrIdentity(atv.Type)
			scratch.AddValues(oid, userName, [][]byte{[]byte(atv.Value)}, s.isSingleValued(oid))
		}
		if deleteOldRDN {
			for _, atv := range old.UserDN.RDN().ATVs {
				oid, _ := s.resolveAttrIdentity(atv.Type)
				scratch.RemoveValues(oid, [][]byte{[]byte(atv.Value)})
			}
		}
		if requestorDN != "" {
			scratch.SetAttribute(schema.AttrModifiersName, "modifiersName", [][]byte{[]byte(requestorDN)}, true)
		}
		if _, err := s.wal.Append(Record{Op: OpModify, EntryID: id, ParentID: oldParentID, Snapshot: snapshotEntry(scratch)}); err != nil {
			return obaerr.Wrap(obaerr.KindUnknown, "store.relocate", d.String(), err)
		}
		old = scratch
	}

	if _, err := s.wal.Append(Record{
		Op: OpMove, EntryID: id, ParentID: targetParentID,
		NormDN: newNdnStr, UserDN: newUserDN.Render(dn.StyleUser),
	}); err != nil {
		return obaerr.Wrap(obaerr.KindUnknown, "store.relocate", d.String(), err)
	}

	// Alias entries below the moved node keep their parent pointers, but
	// the ancestor chain above them changes: drop their oneAlias/subAlias
	// tuples while the parent index still reflects the old chain, re-add
	// after the move is applied. The moved node's own alias bookkeeping is
	// handled by indexRemove/indexInsert below.
	var aliasDescendants []EntryID
	for _, did := range descendants {
		if _, isAlias := s.ix.alias[did]; isAlias {
			aliasDescendants = append(aliasDescendants, did)
			s.unmarkAliasAncestors(did, s.ix.parent[did])
		}
	}

	s.indexRemove(old, oldParentID)
	old.NormDN, old.UserDN = newNormDN, newUserDN
	s.master[id] = old
	s.indexInsert(old, targetParentID)

	for _, did := range descendants {
		de := s.master[did]
		oldDDN := de.NormDN
		oldUDDN := de.UserDN
		prefixLen := len(oldDDN.RDNs) - len(oldNormDN.RDNs)
		newDDN := dn.DN{RDNs: append(append([]dn.RDN(nil), oldDDN.RDNs[:prefixLen]...), newNormDN.RDNs...)}
		newUDDN := dn.DN{RDNs: append(append([]dn.RDN(nil), oldUDDN.RDNs[:prefixLen]...), newUserDN.RDNs...)}
		if _, err := s.wal.Append(Record{
			Op: OpMove, EntryID: did, ParentID: s.ix.parent[did],
			NormDN: newDDN.Render(dn.StyleNormalized), UserDN: newUDDN.Render(dn.StyleUser),
		}); err != nil {
			return obaerr.Wrap(obaerr.KindUnknown, "store.relocate", d.String(), err)
		}
		delete(s.ix.ndn, oldDDN.Render(dn.StyleNormalized))
		de.NormDN, de.UserDN = newDDN, newUDDN
		s.ix.ndn[newDDN.Render(dn.StyleNormalized)] = did
		s.ix.updn[did] = newUDDN
	}
	for _, did := range aliasDescendants {
		s.markAliasAncestors(did, s.ix.parent[did])
	}
	return nil
}

// collectDescendants returns every entry transitively parented under id,
// via a breadth-first walk of the children index.
func (s *Store) collectDescendants(id EntryID) []EntryID {
	var out []EntryID
	queue := []EntryID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for child := range s.ix.children[cur] {
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}
