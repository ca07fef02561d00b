// Package acl implements an access-control evaluator over ACI tuples:
// each tuple binds a user class, an authentication-level precondition, a
// set of protected items, a set of micro-operations, a grant/deny flag
// and a precedence integer.
package acl

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/subentry"
)

// AuthenticationLevel is the precondition an ACI tuple may require of the
// bound principal.
type AuthenticationLevel int

const (
	AuthNone AuthenticationLevel = iota
	AuthSimple
	AuthStrong
)

func (l AuthenticationLevel) String() string {
	switch l {
	case AuthNone:
		return "none"
	case AuthSimple:
		return "simple"
	case AuthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// Meets reports whether the session's actual level satisfies this
// precondition. Strong requires strong, simple accepts simple or strong,
// none accepts anything including anonymous.
func (l AuthenticationLevel) Meets(actual AuthenticationLevel) bool {
	return actual >= l
}

// UserClassKind identifies which user-class form a UserClass value holds.
type UserClassKind int

const (
	ClassAllUsers UserClassKind = iota
	ClassThisEntry
	ClassParentOfEntry
	ClassName
	ClassUserGroup
	ClassSubtree
)

// UserClass is one disjunct of an ACI tuple's subject: AllUsers,
// ThisEntry, ParentOfEntry, Name(dns), UserGroup(dns) or Subtree(spec).
type UserClass struct {
	Kind  UserClassKind
	Names []dn.DN // Name/UserGroup members
	// Spec holds the Subtree coverage: base, specific exclusions,
	// min/max depth and an optional refinement filter, the same
	// structure subentries use for their subtree specifications.
	Spec *subentry.Specification
}

func AllUsers() UserClass      { return UserClass{Kind: ClassAllUsers} }
func ThisEntry() UserClass     { return UserClass{Kind: ClassThisEntry} }
func ParentOfEntry() UserClass { return UserClass{Kind: ClassParentOfEntry} }
func Name(dns ...dn.DN) UserClass {
	return UserClass{Kind: ClassName, Names: dns}
}
func UserGroup(dns ...dn.DN) UserClass {
	return UserClass{Kind: ClassUserGroup, Names: dns}
}
// Subtree builds the whole-subtree form: every principal under base, at
// any depth, with no exclusions or refinement.
func Subtree(base dn.DN) UserClass {
	return UserClass{Kind: ClassSubtree, Spec: &subentry.Specification{Base: base, MaxDepth: -1}}
}

// SubtreeSpec builds the refined form from a full subtree specification.
func SubtreeSpec(spec *subentry.Specification) UserClass {
	return UserClass{Kind: ClassSubtree, Spec: spec}
}

// ProtectedItemKind identifies which protected-item form applies.
type ProtectedItemKind int

const (
	ItemEntry ProtectedItemKind = iota
	ItemAllAttributeValues
	ItemAttributeType
	ItemRangeOfValues
)

// ProtectedItem names what an ACI tuple's micro-operations apply to:
// entry, allAttributeValues, attributeType or rangeOfValues. AttrOIDs is
// used by AttributeType/RangeOfValues; an empty AttrOIDs on
// AllAttributeValues means "every attribute".
type ProtectedItem struct {
	Kind     ProtectedItemKind
	AttrOIDs []string
	// ValueFilter restricts RangeOfValues to values matching a filter
	// string; empty means unrestricted.
	ValueFilter string
}

func Entry() ProtectedItem { return ProtectedItem{Kind: ItemEntry} }
func AllAttributeValues(oids ...string) ProtectedItem {
	return ProtectedItem{Kind: ItemAllAttributeValues, AttrOIDs: oids}
}
func AttributeType(oids ...string) ProtectedItem {
	return ProtectedItem{Kind: ItemAttributeType, AttrOIDs: oids}
}
func RangeOfValues(filterStr string, oids ...string) ProtectedItem {
	return ProtectedItem{Kind: ItemRangeOfValues, AttrOIDs: oids, ValueFilter: filterStr}
}

// Covers reports whether this protected item governs attrOID (the empty
// string means "the entry itself", used for Add/Delete/Rename/Move).
func (p ProtectedItem) Covers(attrOID string) bool {
	if p.Kind == ItemEntry {
		return attrOID == ""
	}
	if attrOID == "" {
		return false
	}
	if len(p.AttrOIDs) == 0 {
		return true
	}
	for _, o := range p.AttrOIDs {
		if o == attrOID {
			return true
		}
	}
	return false
}

// MicroOp is the bit-flag set of operations an ACI tuple grants or denies.
type MicroOp int

const (
	OpRead MicroOp = 1 << iota
	OpAdd
	OpRemove
	OpCompare
	OpSearch
	OpBrowse
	OpExport
	OpImport
	OpRename
	OpDisclose

	OpAll = OpRead | OpAdd | OpRemove | OpCompare | OpSearch | OpBrowse | OpExport | OpImport | OpRename | OpDisclose
	// OpWrite covers the value-mutating micro-operations a Modify exercises.
	OpWrite = OpAdd | OpRemove
)

func (o MicroOp) Has(other MicroOp) bool { return o&other != 0 }

var opNames = map[MicroOp]string{
	OpRead: "read", OpAdd: "add", OpRemove: "remove", OpCompare: "compare",
	OpSearch: "search", OpBrowse: "browse", OpExport: "export",
	OpImport: "import", OpRename: "rename", OpDisclose: "disclose",
}

func (o MicroOp) String() string {
	if o == OpAll {
		return "all"
	}
	s := ""
	for bit, name := range opNames {
		if o.Has(bit) {
			if s != "" {
				s += ","
			}
			s += name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// ACI is one access-control tuple.
type ACI struct {
	Name        string
	Precedence  int
	Grant       bool
	UserClasses []UserClass
	AuthLevel   AuthenticationLevel
	Items       []ProtectedItem
	Ops         MicroOp
}

// appliesTo reports whether attrOID is governed by at least one of the
// tuple's protected items.
func (a ACI) appliesTo(attrOID string) bool {
	for _, it := range a.Items {
		if it.Covers(attrOID) {
			return true
		}
	}
	return false
}
