package schema

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ErrAlreadyRegistered is returned by Register when an object with the same
// OID is already present.
type ErrAlreadyRegistered struct{ OID string }

func (e *ErrAlreadyRegistered) Error() string {
	return fmt.Sprintf("schema: OID %q is already registered", e.OID)
}

// ErrNotFound is returned by lookups that fail to resolve id.
type ErrNotFound struct{ ID string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("schema: %q not found", e.ID) }

// Registry holds the four schema object kinds under a shared
// reader/writer lock. Every mutation bumps a version counter; lookups
// return the live registered objects, not a per-version snapshot, so a
// reader holding an object can observe a later mutation of it.
type Registry struct {
	mu sync.RWMutex

	version int64
	quirks  bool

	attrsByOID map[string]*AttributeType
	attrsByNam map[string]string // lower-case name -> OID

	classesByOID map[string]*ObjectClass
	classesByNam map[string]string

	rulesByOID map[string]*MatchingRule
	rulesByNam map[string]string

	synByOID map[string]*Syntax
}

// NewRegistry creates an empty registry. SetQuirksMode(true) makes
// NormalizeOID accept non-numeric OIDs; the description parsers take
// their own quirks argument.
func NewRegistry() *Registry {
	return &Registry{
		attrsByOID:   map[string]*AttributeType{},
		attrsByNam:   map[string]string{},
		classesByOID: map[string]*ObjectClass{},
		classesByNam: map[string]string{},
		rulesByOID:   map[string]*MatchingRule{},
		rulesByNam:   map[string]string{},
		synByOID:     map[string]*Syntax{},
	}
}

// SetQuirksMode toggles quirks mode.
func (r *Registry) SetQuirksMode(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quirks = on
}

func (r *Registry) QuirksMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.quirks
}

// Version returns the current registry generation, bumped on every mutation.
func (r *Registry) Version() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// isNumericOID reports whether id looks like a dotted-decimal OID: names
// with a leading digit are treated as numeric OIDs directly.
func isNumericOID(id string) bool {
	if id == "" {
		return false
	}
	if id[0] < '0' || id[0] > '9' {
		return false
	}
	for _, r := range id {
		if r != '.' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// RegisterAttributeType adds at to the registry.
func (r *Registry) RegisterAttributeType(at *AttributeType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.attrsByOID[at.OID]; exists {
		return &ErrAlreadyRegistered{OID: at.OID}
	}
	r.attrsByOID[at.OID] = at
	for _, n := range at.Names {
		r.attrsByNam[fold(n)] = at.OID
	}
	r.version++
	return nil
}

func (r *Registry) RegisterObjectClass(oc *ObjectClass) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.classesByOID[oc.OID]; exists {
		return &ErrAlreadyRegistered{OID: oc.OID}
	}
	r.classesByOID[oc.OID] = oc
	for _, n := range oc.Names {
		r.classesByNam[fold(n)] = oc.OID
	}
	r.version++
	return nil
}

func (r *Registry) RegisterMatchingRule(mr *MatchingRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rulesByOID[mr.OID]; exists {
		return &ErrAlreadyRegistered{OID: mr.OID}
	}
	r.rulesByOID[mr.OID] = mr
	for _, n := range mr.Names {
		r.rulesByNam[fold(n)] = mr.OID
	}
	r.version++
	return nil
}

func (r *Registry) RegisterSyntax(s *Syntax) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.synByOID[s.OID]; exists {
		return &ErrAlreadyRegistered{OID: s.OID}
	}
	r.synByOID[s.OID] = s
	r.version++
	return nil
}

// UnregisterAttributeType removes an attribute type and its name aliases.
func (r *Registry) UnregisterAttributeType(oid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.attrsByOID[oid]
	if !ok {
		return &ErrNotFound{ID: oid}
	}
	delete(r.attrsByOID, oid)
	for _, n := range at.Names {
		delete(r.attrsByNam, fold(n))
	}
	r.version++
	return nil
}

// RenameSchema renames a schema object's primary name across both the
// object-class and attribute-type namespaces, whichever matches old.
func (r *Registry) RenameSchema(old, new string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if oid, ok := r.attrsByNam[fold(old)]; ok {
		at := r.attrsByOID[oid]
		at.Names[0] = new
		delete(r.attrsByNam, fold(old))
		r.attrsByNam[fold(new)] = oid
		r.version++
		return nil
	}
	if oid, ok := r.classesByNam[fold(old)]; ok {
		oc := r.classesByOID[oid]
		oc.Names[0] = new
		delete(r.classesByNam, fold(old))
		r.classesByNam[fold(new)] = oid
		r.version++
		return nil
	}
	return &ErrNotFound{ID: old}
}

// LookupAttributeType resolves id (name or OID) case-insensitively.
func (r *Registry) LookupAttributeType(id string) (*AttributeType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if isNumericOID(id) {
		if at, ok := r.attrsByOID[id]; ok {
			return at, nil
		}
	}
	if oid, ok := r.attrsByNam[fold(id)]; ok {
		return r.attrsByOID[oid], nil
	}
	if at, ok := r.attrsByOID[id]; ok {
		return at, nil
	}
	return nil, &ErrNotFound{ID: id}
}

func (r *Registry) LookupObjectClass(id string) (*ObjectClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if isNumericOID(id) {
		if oc, ok := r.classesByOID[id]; ok {
			return oc, nil
		}
	}
	if oid, ok := r.classesByNam[fold(id)]; ok {
		return r.classesByOID[oid], nil
	}
	if oc, ok := r.classesByOID[id]; ok {
		return oc, nil
	}
	return nil, &ErrNotFound{ID: id}
}

func (r *Registry) LookupMatchingRule(id string) (*MatchingRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if isNumericOID(id) {
		if mr, ok := r.rulesByOID[id]; ok {
			return mr, nil
		}
	}
	if oid, ok := r.rulesByNam[fold(id)]; ok {
		return r.rulesByOID[oid], nil
	}
	if mr, ok := r.rulesByOID[id]; ok {
		return mr, nil
	}
	return nil, &ErrNotFound{ID: id}
}

func (r *Registry) LookupSyntax(oid string) (*Syntax, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.synByOID[oid]; ok {
		return s, nil
	}
	return nil, &ErrNotFound{ID: oid}
}

// IterAttributeTypes calls fn for every registered attribute type.
func (r *Registry) IterAttributeTypes(fn func(*AttributeType) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, at := range r.attrsByOID {
		if !fn(at) {
			return
		}
	}
}

func (r *Registry) IterObjectClasses(fn func(*ObjectClass) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, oc := range r.classesByOID {
		if !fn(oc) {
			return
		}
	}
}

// NormalizeOID validates/canonicalizes a dotted-decimal OID string; in
// quirks mode non-numeric descriptor-form OIDs are accepted verbatim.
func (r *Registry) NormalizeOID(raw string) (string, error) {
	if isNumericOID(raw) {
		return raw, nil
	}
	if r.QuirksMode() {
		return raw, nil
	}
	return "", fmt.Errorf("schema: %q is not a numeric OID (quirks mode disabled)", raw)
}

// ParseInt is a tiny strconv.Atoi wrapper for numeric grammar tokens; the
// parser in this package does not call it.
func ParseInt(s string) (int, error) { return strconv.Atoi(s) }
