package filter

import (
	"strings"

	"github.com/oba-directory/obad/internal/matching"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// Evaluate re-evaluates f against e in full, independent of any index
// shortcuts taken while building the candidate set. reg resolves
// attribute types to their matching rules.
func Evaluate(reg *schema.Registry, f Filter, e *store.Entry) bool {
	switch f.Kind {
	case KindAnd:
		for _, c := range f.Children {
			if !Evaluate(reg, c, e) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range f.Children {
			if Evaluate(reg, c, e) {
				return true
			}
		}
		return false
	case KindNot:
		return f.Child != nil && !Evaluate(reg, *f.Child, e)
	case KindPresence:
		oid := resolveOID(reg, f.Attr)
		return e.HasAttribute(oid)
	case KindEquality:
		return evalEquality(reg, f.Attr, f.Value, e)
	case KindSubstring:
		return evalSubstring(reg, f, e)
	case KindGreater:
		return evalOrdering(reg, f.Attr, f.Value, e, func(o matching.Ordering) bool { return o >= matching.Equal })
	case KindLess:
		return evalOrdering(reg, f.Attr, f.Value, e, func(o matching.Ordering) bool { return o <= matching.Equal })
	case KindApprox:
		return evalApprox(reg, f.Attr, f.Value, e)
	case KindExtensible:
		return evalExtensible(reg, f, e)
	}
	return false
}

func resolveOID(reg *schema.Registry, attr string) string {
	at, err := reg.LookupAttributeType(attr)
	if err != nil {
		return strings.ToLower(attr)
	}
	return at.OID
}

func equalityRuleFor(reg *schema.Registry, attr string) string {
	at, err := reg.LookupAttributeType(attr)
	if err != nil || at.Equality == "" {
		return schema.MatchCaseIgnoreMatch
	}
	return at.Equality
}

func substrRuleFor(reg *schema.Registry, attr string) string {
	at, err := reg.LookupAttributeType(attr)
	if err != nil || at.Substr == "" {
		return schema.MatchCaseIgnoreSubstrMatch
	}
	return at.Substr
}

func orderingRuleFor(reg *schema.Registry, attr string) string {
	at, err := reg.LookupAttributeType(attr)
	if err != nil || at.Ordering == "" {
		return equalityRuleFor(reg, attr)
	}
	return at.Ordering
}

func evalEquality(reg *schema.Registry, attr, value string, e *store.Entry) bool {
	oid := resolveOID(reg, attr)
	rule := equalityRuleFor(reg, attr)
	want := matching.Normalize(rule, value)
	for _, v := range e.Values(oid) {
		if matching.Normalize(rule, string(v)) == want {
			return true
		}
	}
	return false
}

func evalSubstring(reg *schema.Registry, f Filter, e *store.Entry) bool {
	oid := resolveOID(reg, f.Attr)
	rule := substrRuleFor(reg, f.Attr)
	r := matching.Lookup(rule)
	if r == nil || r.Substring == nil {
		return false
	}
	for _, v := range e.Values(oid) {
		if r.Substring(string(v), f.Initial, f.Final, f.Any) {
			return true
		}
	}
	return false
}

func evalOrdering(reg *schema.Registry, attr, value string, e *store.Entry, ok func(matching.Ordering) bool) bool {
	oid := resolveOID(reg, attr)
	rule := orderingRuleFor(reg, attr)
	for _, v := range e.Values(oid) {
		if ok(matching.Compare(rule, string(v), value)) {
			return true
		}
	}
	return false
}

func evalApprox(reg *schema.Registry, attr, value string, e *store.Entry) bool {
	oid := resolveOID(reg, attr)
	for _, v := range e.Values(oid) {
		if matching.ApproximateMatch(string(v), value) {
			return true
		}
	}
	return false
}

// evalExtensible implements the subset of RFC 4511 extensible match that
// does not require a remote DIT-content-rule lookup: an explicit attribute
// with an explicit or implicit matching rule, optionally also checking the
// entry's DN components when dnAttributes is set.
func evalExtensible(reg *schema.Registry, f Filter, e *store.Entry) bool {
	rule := f.MatchingRule
	if rule == "" && f.Attr != "" {
		rule = equalityRuleFor(reg, f.Attr)
	}
	if rule == "" {
		rule = schema.MatchCaseIgnoreMatch
	}
	want := matching.Normalize(rule, f.Value)
	if f.Attr != "" {
		oid := resolveOID(reg, f.Attr)
		for _, v := range e.Values(oid) {
			if matching.Normalize(rule, string(v)) == want {
				return true
			}
		}
	}
	if f.DNAttributes {
		for _, r := range e.NormDN.RDNs {
			for _, atv := range r.ATVs {
				if matching.Normalize(rule, atv.Value) == want {
					return true
				}
			}
		}
	}
	return false
}
