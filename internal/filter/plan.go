package filter

import (
	"github.com/oba-directory/obad/internal/matching"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// planCandidates pushes f's leaves down to internal/store's indices,
// returning an exact candidate set when possible and ok=false when the
// filter (or some subtree of it) cannot be answered from an index alone,
// meaning the caller must fall back to a full scan of scopeIDs.
func planCandidates(reg *schema.Registry, st *store.Store, f Filter, scopeIDs map[store.EntryID]bool) (map[store.EntryID]bool, bool) {
	switch f.Kind {
	case KindPresence:
		oid := resolveOID(reg, f.Attr)
		idx := st.PresenceCandidates(oid)
		if idx == nil {
			return nil, false
		}
		return idx, true
	case KindEquality:
		oid := resolveOID(reg, f.Attr)
		rule := equalityRuleFor(reg, f.Attr)
		norm := matching.Normalize(rule, f.Value)
		return st.EqualityCandidates(oid, norm), true
	case KindAnd:
		var sets []map[store.EntryID]bool
		for _, c := range f.Children {
			set, ok := planCandidates(reg, st, c, scopeIDs)
			if !ok {
				return nil, false
			}
			sets = append(sets, set)
		}
		if len(sets) == 0 {
			return nil, false
		}
		return intersectSmallestFirst(sets), true
	case KindOr:
		union := map[store.EntryID]bool{}
		for _, c := range f.Children {
			set, ok := planCandidates(reg, st, c, scopeIDs)
			if !ok {
				return nil, false
			}
			for id := range set {
				union[id] = true
			}
		}
		return union, true
	case KindNot:
		if f.Child == nil {
			return nil, false
		}
		childSet, ok := planCandidates(reg, st, *f.Child, scopeIDs)
		if !ok {
			return nil, false
		}
		out := map[store.EntryID]bool{}
		for id := range scopeIDs {
			if !childSet[id] {
				out[id] = true
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func intersectSmallestFirst(sets []map[store.EntryID]bool) map[store.EntryID]bool {
	smallest := 0
	for i := 1; i < len(sets); i++ {
		if len(sets[i]) < len(sets[smallest]) {
			smallest = i
		}
	}
	out := map[store.EntryID]bool{}
	for id := range sets[smallest] {
		inAll := true
		for i, s := range sets {
			if i == smallest {
				continue
			}
			if !s[id] {
				inAll = false
				break
			}
		}
		if inAll {
			out[id] = true
		}
	}
	return out
}
