package interceptor

import (
	"github.com/oba-directory/obad/internal/filter"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// StoreAdapter is the chain's fourteenth and final stage: the place
// Add/Modify/Delete/Rename/Move turn into store writes and
// Search/Lookup/Compare turn into store reads (Search through
// internal/filter). Several earlier stages also hold the store: they look
// entries up, and OperationalAttribute stamps timestamps through
// store.Touch.
type StoreAdapter struct {
	Base
	Reg   *schema.Registry
	Store *store.Store
}

func NewStoreAdapter(reg *schema.Registry, st *store.Store) *StoreAdapter {
	return &StoreAdapter{Reg: reg, Store: st}
}

func (a *StoreAdapter) Name() string { return "StoreAdapter" }

func (a *StoreAdapter) requestor(ctx *OpContext) string {
	if ctx.Session != nil && !ctx.Session.Anonymous {
		return ctx.Session.BindDN
	}
	return ""
}

func (a *StoreAdapter) OnAdd(ctx *OpContext, _ Handler) error {
	_, err := a.Store.Add(ctx.DN, ctx.Attrs, a.requestor(ctx))
	return err
}

func (a *StoreAdapter) OnModify(ctx *OpContext, _ Handler) error {
	return a.Store.Modify(ctx.DN, ctx.Mods, a.requestor(ctx))
}

func (a *StoreAdapter) OnDelete(ctx *OpContext, _ Handler) error {
	return a.Store.Delete(ctx.DN)
}

func (a *StoreAdapter) OnRename(ctx *OpContext, _ Handler) error {
	if ctx.NewRDN == nil {
		return obaerr.New(obaerr.KindUnwillingToPerform, "StoreAdapter.Rename", ctx.DN.String())
	}
	if ctx.NewSuperior != nil {
		return a.Store.MoveAndRename(ctx.DN, *ctx.NewSuperior, *ctx.NewRDN, ctx.DeleteOldRDN, a.requestor(ctx))
	}
	return a.Store.Rename(ctx.DN, *ctx.NewRDN, ctx.DeleteOldRDN, a.requestor(ctx))
}

func (a *StoreAdapter) OnMove(ctx *OpContext, _ Handler) error {
	if ctx.NewSuperior == nil {
		return obaerr.New(obaerr.KindUnwillingToPerform, "StoreAdapter.Move", ctx.DN.String())
	}
	if ctx.NewRDN != nil {
		return a.Store.MoveAndRename(ctx.DN, *ctx.NewSuperior, *ctx.NewRDN, ctx.DeleteOldRDN, a.requestor(ctx))
	}
	return a.Store.Move(ctx.DN, *ctx.NewSuperior)
}

func (a *StoreAdapter) OnSearch(ctx *OpContext, _ Handler) error {
	cur, err := filter.Search(ctx.Context, a.Reg, a.Store, ctx.DN, ctx.Scope, ctx.Filter, ctx.DerefMode, ctx.SizeLimit)
	if err != nil {
		return err
	}
	defer cur.Close()
	var entries []*store.Entry
	for e := cur.Next(); e != nil; e = cur.Next() {
		entries = append(entries, e)
	}
	ctx.Result = &Result{Entries: entries}
	return nil
}

func (a *StoreAdapter) OnLookup(ctx *OpContext, _ Handler) error {
	e, err := a.Store.Lookup(ctx.DN)
	if err != nil {
		return err
	}
	ctx.Result = &Result{Entries: []*store.Entry{e}}
	return nil
}

func (a *StoreAdapter) OnCompare(ctx *OpContext, _ Handler) error {
	e, err := a.Store.Lookup(ctx.DN)
	if err != nil {
		return err
	}
	oid := ctx.CompareAttr
	if at, lookupErr := a.Reg.LookupAttributeType(ctx.CompareAttr); lookupErr == nil {
		oid = at.OID
	}
	match := false
	for _, v := range e.Values(oid) {
		if string(v) == string(ctx.CompareValue) {
			match = true
			break
		}
	}
	ctx.Result = &Result{CompareTrue: match}
	return nil
}
