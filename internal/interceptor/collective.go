package interceptor

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
	"github.com/oba-directory/obad/internal/subentry"
)

// Collective is the chain's eleventh stage: expand RFC 3671 collective
// attributes from every subentry whose subtree specification covers a
// result entry onto that entry, without overwriting values the entry
// already carries explicitly.
//
// Administrative-point membership comes from the AdministrativePoint
// stage's index so this stage never walks the whole tree.
type Collective struct {
	Base
	Store      *store.Store
	Reg        *schema.Registry
	AdminPoint *AdministrativePoint
}

func NewCollective(reg *schema.Registry, st *store.Store, ap *AdministrativePoint) *Collective {
	return &Collective{Reg: reg, Store: st, AdminPoint: ap}
}

func (c *Collective) Name() string { return "Collective" }

// expand merges every covering subentry's collective attributes into e,
// walking from e's parent up to the root so administrative points at any
// level can apply.
func (c *Collective) expand(e *store.Entry) *store.Entry {
	out := e
	merged := false
	cur := e.NormDN
	for !cur.IsRoot() {
		parent := cur.Parent()
		for _, subNorm := range c.AdminPoint.SubentriesUnder(parent) {
			subDN, err := dn.Parse(subNorm)
			if err != nil {
				continue
			}
			sub, err := c.Store.Lookup(subDN)
			if err != nil {
				continue
			}
			specAttr := sub.Values(schema.AttrSubtreeSpec)
			if len(specAttr) == 0 {
				continue
			}
			spec, err := subentry.Parse(string(specAttr[0]))
			if err != nil {
				continue
			}
			if !spec.Covers(c.Reg, parent, e, c.Store.Normalize) {
				continue
			}
			if !merged {
				out = e.Clone()
				merged = true
			}
			subentry.MergeInto(out, subentry.CollectiveValues(c.Reg, sub))
		}
		cur = parent
	}
	return out
}

func (c *Collective) OnSearch(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	if ctx.Result == nil {
		return nil
	}
	for i, e := range ctx.Result.Entries {
		ctx.Result.Entries[i] = c.expand(e)
	}
	return nil
}

func (c *Collective) OnLookup(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	if ctx.Result == nil {
		return nil
	}
	for i, e := range ctx.Result.Entries {
		ctx.Result.Entries[i] = c.expand(e)
	}
	return nil
}
