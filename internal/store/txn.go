package store

import (
	"encoding/base64"
	"encoding/json"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/schema"
)

// entrySnapshot is the WAL/recovery wire form of an Entry: attribute values
// are base64-encoded since LDAP attributes are arbitrary octet strings.
type entrySnapshot struct {
	ID     EntryID                  `json:"id"`
	NormDN string                   `json:"ndn"`
	UserDN string                   `json:"udn"`
	Attrs  map[string]attrSnapshot  `json:"attrs"`
}

type attrSnapshot struct {
	OID         string   `json:"oid"`
	UserName    string   `json:"name"`
	Values      []string `json:"values"` // base64
	SingleValue bool     `json:"sv"`
}

func snapshotEntry(e *Entry) json.RawMessage {
	snap := entrySnapshot{
		ID:     e.ID,
		NormDN: e.NormDN.Render(dn.StyleNormalized),
		UserDN: e.UserDN.Render(dn.StyleUser),
		Attrs:  map[string]attrSnapshot{},
	}
	for _, oid := range e.SortedOIDs() {
		a := e.Attributes[oid]
		vals := make([]string, len(a.Values))
		for i, v := range a.Values {
			vals[i] = base64.StdEncoding.EncodeToString(v)
		}
		snap.Attrs[oid] = attrSnapshot{OID: a.OID, UserName: a.UserName, Values: vals, SingleValue: a.SingleValue}
	}
	raw, _ := json.Marshal(snap)
	return raw
}

func entryFromSnapshot(rec Record) *Entry {
	var snap entrySnapshot
	if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
		return nil
	}
	normDN, _ := dn.Parse(snap.NormDN)
	userDN, _ := dn.Parse(snap.UserDN)
	e := NewEntry(snap.ID, userDN, normDN)
	for key, a := range snap.Attrs {
		vals := make([][]byte, len(a.Values))
		for i, v := range a.Values {
			b, _ := base64.StdEncoding.DecodeString(v)
			vals[i] = b
		}
		e.Attributes[key] = &Attribute{OID: a.OID, UserName: a.UserName, Values: vals, SingleValue: a.SingleValue}
	}
	return e
}

// indexInsert adds e's contribution to every secondary index. Callers must
// hold s.mu for writing.
func (s *Store) indexInsert(e *Entry, parentID EntryID) {
	ndn := e.NormDN.Render(dn.StyleNormalized)
	s.ix.ndn[ndn] = e.ID
	s.ix.updn[e.ID] = e.UserDN
	s.ix.parent[e.ID] = parentID
	s.ix.addChild(parentID, e.ID)

	for _, oid := range e.SortedOIDs() {
		a := e.Attributes[oid]
		s.ix.setPresence(oid, e.ID)
		for _, v := range a.Values {
			s.ix.setEquality(oid, s.Normalize(oid, string(v)), e.ID)
		}
	}

	if a := e.get(schema.AttrAliasedObjectName); a != nil && len(a.Values) > 0 {
		target, _ := dn.Parse(string(a.Values[0]))
		s.ix.alias[e.ID] = s.normDN(target)
		s.markAliasAncestors(e.ID, parentID)
	}
}

// indexRemove undoes indexInsert's bookkeeping for e, which was parented
// under parentID.
func (s *Store) indexRemove(e *Entry, parentID EntryID) {
	ndn := e.NormDN.Render(dn.StyleNormalized)
	delete(s.ix.ndn, ndn)
	delete(s.ix.updn, e.ID)
	delete(s.ix.parent, e.ID)
	s.ix.removeChild(parentID, e.ID)

	for _, oid := range e.SortedOIDs() {
		a := e.Attributes[oid]
		s.ix.clearPresence(oid, e.ID)
		for _, v := range a.Values {
			s.ix.clearEquality(oid, s.Normalize(oid, string(v)), e.ID)
		}
	}

	if _, ok := s.ix.alias[e.ID]; ok {
		delete(s.ix.alias, e.ID)
		s.unmarkAliasAncestors(e.ID, parentID)
	}
}

// markAliasAncestors maintains the oneAlias/subAlias indices: every
// ancestor of an alias entry records it, oneAlias only
// for the immediate parent, subAlias for every ancestor up to the root.
func (s *Store) markAliasAncestors(aliasID, parentID EntryID) {
	if set, ok := s.ix.oneAlias[parentID]; ok {
		set[aliasID] = true
	} else {
		s.ix.oneAlias[parentID] = map[EntryID]bool{aliasID: true}
	}
	anc := parentID
	for {
		if set, ok := s.ix.subAlias[anc]; ok {
			set[aliasID] = true
		} else {
			s.ix.subAlias[anc] = map[EntryID]bool{aliasID: true}
		}
		next, ok := s.ix.parent[anc]
		if !ok || next == anc {
			break
		}
		anc = next
	}
}

func (s *Store) unmarkAliasAncestors(aliasID, parentID EntryID) {
	if set, ok := s.ix.oneAlias[parentID]; ok {
		delete(set, aliasID)
		if len(set) == 0 {
			delete(s.ix.oneAlias, parentID)
		}
	}
	anc := parentID
	seen := map[EntryID]bool{}
	for !seen[anc] {
		seen[anc] = true
		if set, ok := s.ix.subAlias[anc]; ok {
			delete(set, aliasID)
			if len(set) == 0 {
				delete(s.ix.subAlias, anc)
			}
		}
		next, ok := s.ix.parent[anc]
		if !ok || next == anc {
			break
		}
		anc = next
	}
}
