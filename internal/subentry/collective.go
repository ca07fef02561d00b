package subentry

import (
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// IsSubentry reports whether e's objectClass includes "subentry".
func IsSubentry(e *store.Entry) bool {
	for _, oc := range e.ObjectClasses() {
		if equalFold(oc, "subentry") {
			return true
		}
	}
	return false
}

// CollectiveValues returns the attribute values a subentry contributes to
// entries within its subtree specification's coverage: every attribute on
// sub whose schema definition is marked Collective (RFC 3671), keyed by
// OID. Non-collective attributes (cn, subtreeSpecification, objectClass,
// ...) are never propagated.
func CollectiveValues(reg *schema.Registry, sub *store.Entry) map[string]*store.Attribute {
	out := map[string]*store.Attribute{}
	for _, oid := range sub.SortedOIDs() {
		at, err := reg.LookupAttributeType(oid)
		if err != nil || !at.Collective {
			continue
		}
		vals := sub.Values(oid)
		if len(vals) == 0 {
			continue
		}
		out[oid] = &store.Attribute{OID: oid, UserName: at.Name(), Values: vals}
	}
	return out
}

// MergeInto adds collective to target wherever target does not already
// carry an explicit value for that attribute: subentry values are merged
// into the *view*, never overriding the entry's own values.
func MergeInto(target *store.Entry, collective map[string]*store.Attribute) {
	for oid, a := range collective {
		if target.HasAttribute(oid) {
			continue
		}
		target.SetAttribute(oid, a.UserName, a.Values, a.SingleValue)
	}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
