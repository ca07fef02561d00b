package store

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
)

// Delete removes the leaf entry at d. The entry must have no children;
// the caller composes recursive delete out of repeated calls if it wants
// that behavior.
func (s *Store) Delete(d dn.DN) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ndn := s.normDN(d).Render(dn.StyleNormalized)
	id, ok := s.ix.ndn[ndn]
	if !ok {
		return obaerr.New(obaerr.KindNoSuchEntry, "store.Delete", d.String())
	}
	if set := s.ix.children[id]; len(set) > 0 {
		return obaerr.New(obaerr.KindNotAllowedOnNonLeaf, "store.Delete", d.String())
	}

	e := s.master[id]
	parentID := s.ix.parent[id]
	if _, err := s.wal.Append(Record{Op: OpDelete, EntryID: id}); err != nil {
		return obaerr.Wrap(obaerr.KindUnknown, "store.Delete", d.String(), err)
	}
	s.indexRemove(e, parentID)
	delete(s.master, id)
	return nil
}
