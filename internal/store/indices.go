package store

import "github.com/oba-directory/obad/internal/dn"

// indices bundles the nine secondary indices:
//
//	ndn          normalized DN -> entry id                         (unique)
//	updn         entry id -> user-provided DN                      (inverse of ndn)
//	parent       entry id -> parent entry id
//	children     parent entry id -> set of immediate child ids
//	presence     attribute OID -> set of entry ids having it
//	equality     attribute OID -> normalized value -> set of entry ids
//	alias        entry id -> normalized target DN (aliasedObjectName)
//	oneAlias     entry id (scope base) -> set of alias ids one level under it
//	subAlias     entry id (scope base) -> set of alias ids anywhere under it
//
// All nine are maintained transactionally alongside the master table; see
// txn.go.
type indices struct {
	ndn      map[string]EntryID
	updn     map[EntryID]dn.DN
	parent   map[EntryID]EntryID
	children map[EntryID]map[EntryID]bool
	presence map[string]map[EntryID]bool
	equality map[string]map[string]map[EntryID]bool
	alias    map[EntryID]dn.DN
	oneAlias map[EntryID]map[EntryID]bool
	subAlias map[EntryID]map[EntryID]bool
}

func newIndices() *indices {
	return &indices{
		ndn:      map[string]EntryID{},
		updn:     map[EntryID]dn.DN{},
		parent:   map[EntryID]EntryID{},
		children: map[EntryID]map[EntryID]bool{},
		presence: map[string]map[EntryID]bool{},
		equality: map[string]map[string]map[EntryID]bool{},
		alias:    map[EntryID]dn.DN{},
		oneAlias: map[EntryID]map[EntryID]bool{},
		subAlias: map[EntryID]map[EntryID]bool{},
	}
}

func (ix *indices) addChild(parent, child EntryID) {
	set, ok := ix.children[parent]
	if !ok {
		set = map[EntryID]bool{}
		ix.children[parent] = set
	}
	set[child] = true
}

func (ix *indices) removeChild(parent, child EntryID) {
	if set, ok := ix.children[parent]; ok {
		delete(set, child)
		if len(set) == 0 {
			delete(ix.children, parent)
		}
	}
}

func (ix *indices) setPresence(oid string, id EntryID) {
	set, ok := ix.presence[oid]
	if !ok {
		set = map[EntryID]bool{}
		ix.presence[oid] = set
	}
	set[id] = true
}

func (ix *indices) clearPresence(oid string, id EntryID) {
	if set, ok := ix.presence[oid]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(ix.presence, oid)
		}
	}
}

func (ix *indices) setEquality(oid, normValue string, id EntryID) {
	byVal, ok := ix.equality[oid]
	if !ok {
		byVal = map[string]map[EntryID]bool{}
		ix.equality[oid] = byVal
	}
	set, ok := byVal[normValue]
	if !ok {
		set = map[EntryID]bool{}
		byVal[normValue] = set
	}
	set[id] = true
}

func (ix *indices) clearEquality(oid, normValue string, id EntryID) {
	byVal, ok := ix.equality[oid]
	if !ok {
		return
	}
	if set, ok := byVal[normValue]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(byVal, normValue)
		}
	}
	if len(byVal) == 0 {
		delete(ix.equality, oid)
	}
}

// EqualityCandidates returns the entry ids whose attrOID contains normValue,
// for use by internal/filter's index-assisted planner.
func (ix *indices) EqualityCandidates(oid, normValue string) map[EntryID]bool {
	return ix.equality[oid][normValue]
}

// PresenceCandidates returns the entry ids having at least one value of oid.
func (ix *indices) PresenceCandidates(oid string) map[EntryID]bool {
	return ix.presence[oid]
}

// Children returns the immediate children of id.
func (ix *indices) Children(id EntryID) map[EntryID]bool {
	return ix.children[id]
}

// OneAlias returns aliases exactly one level under base (scope oneLevel
// alias bookkeeping).
func (ix *indices) OneAlias(base EntryID) map[EntryID]bool {
	return ix.oneAlias[base]
}

// SubAlias returns aliases anywhere in base's subtree.
func (ix *indices) SubAlias(base EntryID) map[EntryID]bool {
	return ix.subAlias[base]
}
