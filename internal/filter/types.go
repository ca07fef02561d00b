// Package filter implements the search filter evaluator and cursor
// pipeline: an ASN.1-shaped filter tree compiled against internal/store's
// indices into a candidate cursor, then re-evaluated entry-by-entry
// because index lookups are only approximations of the full predicate
// (e.g. substring matching beyond an indexed prefix).
package filter

// Filter is the sum type of every LDAP filter node (RFC 4511 §4.5.1).
// Exactly one of the typed fields is meaningful per node, selected by Kind.
type Filter struct {
	Kind Kind

	// And, Or
	Children []Filter

	// Not
	Child *Filter

	// Presence, Equality, Substring, Greater, Less, Approx, Extensible
	Attr string

	// Equality, Greater, Less, Approx, Extensible
	Value string

	// Substring
	Initial string
	Any     []string
	Final   string

	// Extensible
	MatchingRule string
	DNAttributes bool
}

// Kind identifies which LDAP filter choice a Filter node represents.
type Kind int

const (
	KindAnd Kind = iota
	KindOr
	KindNot
	KindPresence
	KindEquality
	KindSubstring
	KindGreater
	KindLess
	KindApprox
	KindExtensible
)

func And(children ...Filter) Filter { return Filter{Kind: KindAnd, Children: children} }
func Or(children ...Filter) Filter  { return Filter{Kind: KindOr, Children: children} }
func Not(child Filter) Filter       { return Filter{Kind: KindNot, Child: &child} }
func Presence(attr string) Filter   { return Filter{Kind: KindPresence, Attr: attr} }
func Equality(attr, value string) Filter {
	return Filter{Kind: KindEquality, Attr: attr, Value: value}
}
func Substring(attr, initial string, any []string, final string) Filter {
	return Filter{Kind: KindSubstring, Attr: attr, Initial: initial, Any: any, Final: final}
}
func Greater(attr, value string) Filter { return Filter{Kind: KindGreater, Attr: attr, Value: value} }
func Less(attr, value string) Filter    { return Filter{Kind: KindLess, Attr: attr, Value: value} }
func Approx(attr, value string) Filter  { return Filter{Kind: KindApprox, Attr: attr, Value: value} }
func Extensible(rule, attr, value string, dnAttrs bool) Filter {
	return Filter{Kind: KindExtensible, MatchingRule: rule, Attr: attr, Value: value, DNAttributes: dnAttrs}
}

// Scope is the LDAP search scope (RFC 4511 §4.5.1).
type Scope int

const (
	ScopeBase Scope = iota
	ScopeOneLevel
	ScopeSubtree
)

// DerefMode is the alias-dereferencing mode (RFC 4511 §4.5.1).
type DerefMode int

const (
	DerefNever DerefMode = iota
	DerefFindingBase
	DerefSearching
	DerefAlways
)
