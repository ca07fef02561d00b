package interceptor

import (
	"github.com/oba-directory/obad/internal/referral"
	"github.com/oba-directory/obad/internal/store"
)

// Referral is the chain's third stage: when a search or lookup target is
// itself a referral entry, short-circuit with a Referral result instead
// of descending into the store, unless the ManageDsaIT control is set, in
// which case the entry is returned as itself. Package internal/referral
// supplies the referral-entry detection this stage consumes.
type Referral struct {
	Base
	Store *store.Store
}

func NewReferral(st *store.Store) *Referral { return &Referral{Store: st} }

func (r *Referral) Name() string { return "Referral" }

func (r *Referral) OnLookup(ctx *OpContext, next Handler) error {
	if ctx.ManageDsaIT {
		return next(ctx)
	}
	e, err := r.Store.Lookup(ctx.DN)
	if err != nil {
		return next(ctx)
	}
	if urls := referral.URLs(e); urls != nil {
		ctx.Result = &Result{Referral: urls}
		return nil
	}
	return next(ctx)
}

func (r *Referral) OnSearch(ctx *OpContext, next Handler) error {
	if ctx.ManageDsaIT {
		return next(ctx)
	}
	e, err := r.Store.Lookup(ctx.DN)
	if err != nil {
		return next(ctx)
	}
	if urls := referral.URLs(e); urls != nil {
		ctx.Result = &Result{Referral: urls}
		return nil
	}
	if err := next(ctx); err != nil {
		return err
	}
	if ctx.Result != nil {
		ctx.Result.Entries, ctx.Result.Referral = stripOrFlagReferrals(ctx, ctx.Result.Entries)
	}
	return nil
}

// stripOrFlagReferrals removes referral entries from a completed search's
// result set when ManageDsaIT was not requested, collecting their ref
// URLs so a wider-scope search that traverses into a referral subtree
// surfaces the continuation references instead of the referral entries
// themselves.
func stripOrFlagReferrals(ctx *OpContext, entries []*store.Entry) ([]*store.Entry, []string) {
	if ctx.ManageDsaIT {
		return entries, nil
	}
	var kept []*store.Entry
	var refs []string
	for _, e := range entries {
		if urls := referral.URLs(e); urls != nil {
			refs = append(refs, urls...)
			continue
		}
		kept = append(kept, e)
	}
	return kept, refs
}
