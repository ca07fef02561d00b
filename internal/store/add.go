package store

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
)

// Add inserts a new entry at userDN. userDN's parent must already exist.
// Schema validation (object class MUST/MAY, structural-class closure) is
// the caller's responsibility via schema.Registry.ValidateEntry, run before
// Add is called, consistent with the interceptor chain's Schema stage
// running ahead of the terminal store operation.
//
// attrs is keyed by lower-cased attribute-type OID, matching Entry's
// internal convention; callers resolve user-supplied names through the
// schema registry before calling Add.
func (s *Store) Add(userDN dn.DN, attrs map[string]*Attribute, requestorDN string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normDN := s.normDN(userDN)
	ndn := normDN.Render(dn.StyleNormalized)
	if _, exists := s.ix.ndn[ndn]; exists {
		return nil, obaerr.New(obaerr.KindAlreadyExists, "store.Add", userDN.String())
	}

	var parentID EntryID
	switch {
	case normDN.IsRoot():
		parentID = RootParentID
	case normDN.Equal(s.normDN(s.baseDN), nil):
		// The partition suffix itself has no entry above it in this
		// store: it attaches directly beneath the root sentinel
		// regardless of how many RDNs its DN carries.
		parentID = RootParentID
	default:
		parentNorm := normDN.Parent()
		pid, ok := s.ix.ndn[parentNorm.Render(dn.StyleNormalized)]
		if !ok {
			return nil, obaerr.New(obaerr.KindNoSuchEntry, "store.Add", parentNorm.String())
		}
		if _, ok := s.ix.alias[pid]; ok {
			return nil, obaerr.New(obaerr.KindAliasProblem, "store.Add", userDN.String())
		}
		parentID = pid
	}

	id := s.nextID
	s.nextID++
	e := NewEntry(id, userDN, normDN)
	for oid, a := range attrs {
		e.Attributes[oid] = a
	}
	s.assignOperational(e, requestorDN)

	if target, isAlias := aliasTarget(e); isAlias {
		normTarget := s.normDN(target)
		if !s.baseDN.IsRoot() && !s.normDN(s.baseDN).AncestorOf(normTarget, nil) {
			return nil, obaerr.New(obaerr.KindAliasProblem, "store.Add", target.String())
		}
		if err := s.checkAliasCycle(normDN, normTarget); err != nil {
			return nil, err
		}
	}

	if _, err := s.wal.Append(Record{Op: OpAdd, EntryID: id, ParentID: parentID, Snapshot: snapshotEntry(e)}); err != nil {
		return nil, obaerr.Wrap(obaerr.KindUnknown, "store.Add", userDN.String(), err)
	}
	s.master[id] = e
	s.indexInsert(e, parentID)
	return e, nil
}

// assignOperational stamps the operational attributes the store itself
// owns (the NO-USER-MODIFICATION set): entryUUID, creatorsName
// and structuralObjectClass. createTimestamp/modifyTimestamp are left to
// the interceptor chain's OperationalAttribute stage, which has access to
// a clock; the store stays clock-free so recovery replay is deterministic.
func (s *Store) assignOperational(e *Entry, requestorDN string) {
	e.SetAttribute(schema.AttrEntryUUID, "entryUUID", [][]byte{[]byte(newEntryUUID())}, true)
	if requestorDN != "" {
		e.SetAttribute(schema.AttrCreatorsName, "creatorsName", [][]byte{[]byte(requestorDN)}, true)
	}
	if ocs := e.ObjectClasses(); len(ocs) > 0 {
		for _, name := range ocs {
			if oc, err := s.reg.LookupObjectClass(name); err == nil && oc.Kind == schema.KindStructural {
				e.SetAttribute(schema.AttrStructuralOC, "structuralObjectClass", [][]byte{[]byte(oc.Name())}, true)
				break
			}
		}
	}
}

func aliasTarget(e *Entry) (dn.DN, bool) {
	a := e.get(schema.AttrAliasedObjectName)
	if a == nil || len(a.Values) == 0 {
		return dn.DN{}, false
	}
	target, err := dn.Parse(string(a.Values[0]))
	if err != nil {
		return dn.DN{}, false
	}
	return target, true
}
