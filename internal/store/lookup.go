package store

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
)

// Lookup resolves a DN to its current entry. The returned Entry is a deep
// copy (see Entry.Clone) so callers may inspect it without holding the
// store lock.
func (s *Store) Lookup(d dn.DN) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ix.ndn[s.normDN(d).Render(dn.StyleNormalized)]
	if !ok {
		return nil, obaerr.New(obaerr.KindNoSuchEntry, "store.Lookup", d.String())
	}
	return s.master[id].Clone(), nil
}

// LookupByID resolves an entry-id directly, used by the filter cursor
// pipeline and by alias dereferencing.
func (s *Store) LookupByID(id EntryID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.master[id]
	if !ok {
		return nil, obaerr.New(obaerr.KindNoSuchEntry, "store.LookupByID", "")
	}
	return e.Clone(), nil
}

// IDFor returns the entry-id for d, if present.
func (s *Store) IDFor(d dn.DN) (EntryID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ix.ndn[s.normDN(d).Render(dn.StyleNormalized)]
	return id, ok
}

// ParentID returns id's parent, or RootParentID if id is the base entry.
func (s *Store) ParentID(id EntryID) (EntryID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.ix.parent[id]
	return pid, ok
}

// ChildIDs returns id's immediate children.
func (s *Store) ChildIDs(id EntryID) []EntryID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.ix.children[id]
	out := make([]EntryID, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// AllIDs returns every entry-id currently in the master table, for a
// full-scope scan when no index can narrow the candidate set.
func (s *Store) AllIDs() []EntryID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EntryID, 0, len(s.master))
	for id := range s.master {
		out = append(out, id)
	}
	return out
}

// EqualityCandidates exposes the equality index to internal/filter's
// planner without leaking the indices type itself.
func (s *Store) EqualityCandidates(attrOID, normValue string) map[EntryID]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.EqualityCandidates(attrOID, normValue)
}

// PresenceCandidates exposes the presence index.
func (s *Store) PresenceCandidates(attrOID string) map[EntryID]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.PresenceCandidates(attrOID)
}

// OneAlias exposes the oneAlias index for a given scope base.
func (s *Store) OneAlias(base EntryID) map[EntryID]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.OneAlias(base)
}

// SubAlias exposes the subAlias index for a given scope base.
func (s *Store) SubAlias(base EntryID) map[EntryID]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.SubAlias(base)
}

// BaseDN returns the partition's configured suffix.
func (s *Store) BaseDN() dn.DN { return s.baseDN }
