package store

import (
	"strings"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
)

// Modify applies mods to the entry at d as a single atomic commit: every
// primitive operation is validated against a scratch copy of the entry
// first (ObjectClassViolation, NotAllowedOnRDN), then the
// master record and every affected secondary index are written together.
// Partial application never happens.
func (s *Store) Modify(d dn.DN, mods []dn.Modification, requestorDN string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ndn := s.normDN(d).Render(dn.StyleNormalized)
	id, ok := s.ix.ndn[ndn]
	if !ok {
		return obaerr.New(obaerr.KindNoSuchEntry, "store.Modify", d.String())
	}
	old := s.master[id]
	scratch := old.Clone()

	rdnAttrRaw, rdnValue, hasRDN := currentRDNPair(scratch)
	rdnAttr, _ := s.resolveAttrIdentity(rdnAttrRaw)

	for _, m := range mods {
		oid, userName := s.resolveAttrIdentity(m.Type)
		switch m.Op {
		case dn.ModAdd:
			for _, v := range m.Values {
				if s.valueExists(scratch, oid, v) {
					return obaerr.New(obaerr.KindAttributeOrValueExists, "store.Modify", d.String())
				}
			}
			scratch.AddValues(oid, userName, m.Values, s.isSingleValued(oid))
		case dn.ModDelete:
			if len(m.Values) == 0 && !scratch.HasAttribute(oid) {
				return obaerr.New(obaerr.KindNoSuchAttribute, "store.Modify", d.String())
			}
			for _, v := range m.Values {
				if !s.valueExists(scratch, oid, v) {
					return obaerr.New(obaerr.KindNoSuchAttribute, "store.Modify", d.String())
				}
			}
			if hasRDN && strings.EqualFold(oid, rdnAttr) {
				wholeGone := len(m.Values) == 0
				removing := ""
				if len(m.Values) > 0 {
					removing = string(m.Values[0])
				}
				if !schema.RDNAttributeAllowed(oid, rdnAttr, rdnValue, removing, wholeGone) {
					return obaerr.New(obaerr.KindNotAllowedOnRDN, "store.Modify", d.String())
				}
			}
			scratch.RemoveValues(oid, m.Values)
		case dn.ModReplace:
			if hasRDN && strings.EqualFold(oid, rdnAttr) && !containsValue(m.Values, rdnValue) {
				return obaerr.New(obaerr.KindNotAllowedOnRDN, "store.Modify", d.String())
			}
			if len(m.Values) == 0 {
				scratch.SetAttribute(oid, userName, nil, false)
			} else {
				scratch.SetAttribute(oid, userName, m.Values, s.isSingleValued(oid))
			}
		}
	}

	if errs := s.reg.ValidateEntry(scratch); len(errs) > 0 {
		return obaerr.New(obaerr.KindObjectClassViolation, "store.Modify", d.String())
	}
	if requestorDN != "" {
		scratch.SetAttribute(schema.AttrModifiersName, "modifiersName", [][]byte{[]byte(requestorDN)}, true)
	}

	if _, err := s.wal.Append(Record{Op: OpModify, EntryID: id, ParentID: s.ix.parent[id], Snapshot: snapshotEntry(scratch)}); err != nil {
		return obaerr.Wrap(obaerr.KindUnknown, "store.Modify", d.String(), err)
	}

	parentID := s.ix.parent[id]
	s.indexRemove(old, parentID)
	s.master[id] = scratch
	s.indexInsert(scratch, parentID)
	return nil
}

// Touch stamps a single no-user-modification attribute (createTimestamp,
// modifyTimestamp) on the entry at d, outside of a Modify request. Used by
// the interceptor chain's OperationalAttribute stage, which owns the
// clock the store itself deliberately lacks (see assignOperational).
func (s *Store) Touch(d dn.DN, oid, userName string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ndn := s.normDN(d).Render(dn.StyleNormalized)
	id, ok := s.ix.ndn[ndn]
	if !ok {
		return obaerr.New(obaerr.KindNoSuchEntry, "store.Touch", d.String())
	}
	old := s.master[id]
	scratch := old.Clone()
	scratch.SetAttribute(oid, userName, [][]byte{value}, true)

	if _, err := s.wal.Append(Record{Op: OpModify, EntryID: id, ParentID: s.ix.parent[id], Snapshot: snapshotEntry(scratch)}); err != nil {
		return obaerr.Wrap(obaerr.KindUnknown, "store.Touch", d.String(), err)
	}
	parentID := s.ix.parent[id]
	s.indexRemove(old, parentID)
	s.master[id] = scratch
	s.indexInsert(scratch, parentID)
	return nil
}

// resolveAttrIdentity maps a user-supplied attribute identifier to its
// canonical OID key and the identifier to retain for write-back, falling
// back to the identifier itself for unregistered types (quirks-tolerant,
// consistent with schema.Registry's own lookup fallback).
func (s *Store) resolveAttrIdentity(id string) (oid, userName string) {
	at, err := s.reg.LookupAttributeType(id)
	if err != nil {
		return strings.ToLower(id), id
	}
	return at.OID, id
}

func (s *Store) isSingleValued(oid string) bool {
	at, err := s.reg.LookupAttributeType(oid)
	if err != nil {
		return false
	}
	return at.SingleValue
}

func (s *Store) valueExists(e *Entry, oid string, v []byte) bool {
	norm := s.Normalize(oid, string(v))
	for _, existing := range e.Values(oid) {
		if s.Normalize(oid, string(existing)) == norm {
			return true
		}
	}
	return false
}

func containsValue(values [][]byte, want string) bool {
	for _, v := range values {
		if string(v) == want {
			return true
		}
	}
	return false
}

// currentRDNPair extracts the attribute OID/value pair that composes e's
// current RDN, used to enforce invariant I10 (NotAllowedOnRDN).
func currentRDNPair(e *Entry) (oid, value string, ok bool) {
	if e.NormDN.IsRoot() {
		return "", "", false
	}
	rdn := e.NormDN.RDN()
	if len(rdn.ATVs) == 0 {
		return "", "", false
	}
	atv := rdn.ATVs[0]
	return atv.Type, atv.Value, true
}
