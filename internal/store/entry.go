// Package store implements the entry store: a master table keyed by
// entry-id plus the secondary indices (DN, parent/children, presence,
// equality, alias scopes), with crash-safe single-commit writes through a
// WAL recovery log. The physical layout is an in-memory map plus an
// append-only WAL.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/schema"
)

// EntryID is the opaque 64-bit primary key assigned at insert, never
// reused within a database lifetime. The root's
// parent is EntryID(0), the sentinel.
type EntryID uint64

const RootParentID EntryID = 0

// Attribute is one attribute's value set, keyed by its schema OID but
// retaining the user-provided identifier for write-back.
type Attribute struct {
	OID         string
	UserName    string
	Values      [][]byte
	SingleValue bool
}

// Entry is the store's representation of a directory entry.
type Entry struct {
	ID         EntryID
	NormDN     dn.DN
	UserDN     dn.DN
	Attributes map[string]*Attribute // keyed by lower-cased OID
	mu         sync.RWMutex          // per-entry write lock
}

func NewEntry(id EntryID, userDN, normDN dn.DN) *Entry {
	return &Entry{ID: id, UserDN: userDN, NormDN: normDN, Attributes: map[string]*Attribute{}}
}

// Clone performs a deep copy, used to give searches a stable snapshot
// image under the store's copy-on-write discipline.
func (e *Entry) Clone() *Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := &Entry{ID: e.ID, NormDN: e.NormDN, UserDN: e.UserDN, Attributes: map[string]*Attribute{}}
	for k, a := range e.Attributes {
		vals := make([][]byte, len(a.Values))
		for i, v := range a.Values {
			vals[i] = append([]byte(nil), v...)
		}
		out.Attributes[k] = &Attribute{OID: a.OID, UserName: a.UserName, Values: vals, SingleValue: a.SingleValue}
	}
	return out
}

func (e *Entry) get(oid string) *Attribute { return e.Attributes[strings.ToLower(oid)] }

// HasAttribute implements schema.EntryView.
func (e *Entry) HasAttribute(oid string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a := e.get(oid)
	return a != nil && len(a.Values) > 0
}

// Values returns the values of attrOID, or nil.
func (e *Entry) Values(oid string) [][]byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a := e.get(oid)
	if a == nil {
		return nil
	}
	out := make([][]byte, len(a.Values))
	copy(out, a.Values)
	return out
}

// ObjectClasses implements schema.EntryView.
func (e *Entry) ObjectClasses() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a := e.get(schema.AttrObjectClass)
	if a == nil {
		return nil
	}
	out := make([]string, len(a.Values))
	for i, v := range a.Values {
		out[i] = string(v)
	}
	return out
}

// SetAttribute replaces oid's entire value set (empty values removes it).
func (e *Entry) SetAttribute(oid, userName string, values [][]byte, singleValue bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := strings.ToLower(oid)
	if len(values) == 0 {
		delete(e.Attributes, key)
		return
	}
	e.Attributes[key] = &Attribute{OID: oid, UserName: userName, Values: values, SingleValue: singleValue}
}

// AddValues appends to oid's value set, de-duplicating exact byte matches
// (an LDAP attribute is a *set*).
func (e *Entry) AddValues(oid, userName string, values [][]byte, singleValue bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := strings.ToLower(oid)
	a, ok := e.Attributes[key]
	if !ok {
		e.Attributes[key] = &Attribute{OID: oid, UserName: userName, Values: dedupe(nil, values), SingleValue: singleValue}
		return
	}
	a.Values = dedupe(a.Values, values)
}

// RemoveValues removes the given values from oid's set; if values is empty
// the whole attribute is removed. Returns the values actually removed and
// whether the whole attribute vanished.
func (e *Entry) RemoveValues(oid string, values [][]byte) (removed [][]byte, attrGone bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := strings.ToLower(oid)
	a, ok := e.Attributes[key]
	if !ok {
		return nil, false
	}
	if len(values) == 0 {
		removed = a.Values
		delete(e.Attributes, key)
		return removed, true
	}
	removeSet := map[string]bool{}
	for _, v := range values {
		removeSet[string(v)] = true
	}
	var kept [][]byte
	for _, v := range a.Values {
		if removeSet[string(v)] {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) == 0 {
		delete(e.Attributes, key)
		return removed, true
	}
	a.Values = kept
	return removed, false
}

func dedupe(existing, add [][]byte) [][]byte {
	seen := map[string]bool{}
	var out [][]byte
	for _, v := range existing {
		if !seen[string(v)] {
			seen[string(v)] = true
			out = append(out, v)
		}
	}
	for _, v := range add {
		if !seen[string(v)] {
			seen[string(v)] = true
			out = append(out, v)
		}
	}
	return out
}

// SortedOIDs returns the entry's attribute OIDs in a stable order, for
// deterministic iteration (LDIF rendering, index rebuilding).
func (e *Entry) SortedOIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
