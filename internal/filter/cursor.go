package filter

import (
	"context"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// Cursor is a closeable finite sequence of matching entries. Search
// gathers every entry before it returns the cursor; cancellation happens
// inside Search, not while the cursor is read.
type Cursor struct {
	entries []*store.Entry
	pos     int
	closed  bool
}

// Next advances the cursor and returns the next entry, or nil when
// exhausted.
func (c *Cursor) Next() *store.Entry {
	if c.closed || c.pos >= len(c.entries) {
		return nil
	}
	e := c.entries[c.pos]
	c.pos++
	return e
}

// Close releases the cursor; Next returns nil unconditionally afterward.
func (c *Cursor) Close() { c.closed = true; c.entries = nil }

// Len reports how many entries the cursor holds in total.
func (c *Cursor) Len() int { return len(c.entries) }

// Search runs a scoped, index-assisted search: candidate planning, alias
// dereferencing, and size limits. ctx carries the per-operation
// cancellation token; Abandon cancels ctx, and Search stops between
// candidates.
func Search(ctx context.Context, reg *schema.Registry, st *store.Store, base dn.DN, scope Scope, f Filter, deref DerefMode, sizeLimit int) (*Cursor, error) {
	baseID, ok := st.IDFor(base)
	if !ok {
		return nil, obaerr.New(obaerr.KindNoSuchEntry, "filter.Search", base.String())
	}
	if deref == DerefFindingBase || deref == DerefAlways {
		resolved, ok := st.Resolve(baseID)
		if !ok {
			return nil, obaerr.New(obaerr.KindAliasDereferencingProblem, "filter.Search", base.String())
		}
		baseID = resolved
	}

	scopeIDs := scopeSet(st, baseID, scope)
	if deref == DerefSearching || deref == DerefAlways {
		widenWithAliases(st, baseID, scope, scopeIDs)
	}

	planned, exact := planCandidates(reg, st, f, scopeIDs)
	var candidates map[store.EntryID]bool
	if exact {
		candidates = map[store.EntryID]bool{}
		for id := range planned {
			if scopeIDs[id] {
				candidates[id] = true
			}
		}
	} else {
		candidates = scopeIDs
	}

	var out []*store.Entry
	for id := range candidates {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return &Cursor{entries: out}, nil
			default:
			}
		}
		e, err := st.LookupByID(id)
		if err != nil {
			continue
		}
		if (deref == DerefSearching || deref == DerefAlways) && st.IsAlias(id) {
			targetID, ok := st.Resolve(id)
			if !ok {
				continue
			}
			e, err = st.LookupByID(targetID)
			if err != nil {
				continue
			}
		}
		if !Evaluate(reg, f, e) {
			continue
		}
		out = append(out, e)
		if sizeLimit > 0 && len(out) > sizeLimit {
			return nil, obaerr.New(obaerr.KindSizeLimitExceeded, "filter.Search", base.String())
		}
	}
	return &Cursor{entries: out}, nil
}

// scopeSet computes the literal (pre-alias-widening) candidate set for
// scope rooted at baseID.
func scopeSet(st *store.Store, baseID store.EntryID, scope Scope) map[store.EntryID]bool {
	out := map[store.EntryID]bool{}
	switch scope {
	case ScopeBase:
		out[baseID] = true
	case ScopeOneLevel:
		for _, c := range st.ChildIDs(baseID) {
			out[c] = true
		}
	case ScopeSubtree:
		out[baseID] = true
		queue := []store.EntryID{baseID}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, c := range st.ChildIDs(cur) {
				if !out[c] {
					out[c] = true
					queue = append(queue, c)
				}
			}
		}
	}
	return out
}

// widenWithAliases adds alias targets reachable from baseID per scope into
// candidates, using the oneAlias/subAlias indices.
func widenWithAliases(st *store.Store, baseID store.EntryID, scope Scope, candidates map[store.EntryID]bool) {
	var aliasIDs map[store.EntryID]bool
	switch scope {
	case ScopeOneLevel:
		aliasIDs = st.OneAlias(baseID)
	case ScopeSubtree:
		aliasIDs = st.SubAlias(baseID)
	default:
		return
	}
	for aliasID := range aliasIDs {
		targetID, ok := st.Resolve(aliasID)
		if !ok {
			continue
		}
		candidates[targetID] = true
		if scope == ScopeSubtree {
			for _, id := range subtreeIDs(st, targetID) {
				candidates[id] = true
			}
		}
	}
}

func subtreeIDs(st *store.Store, root store.EntryID) []store.EntryID {
	var out []store.EntryID
	queue := []store.EntryID{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		queue = append(queue, st.ChildIDs(cur)...)
	}
	return out
}
