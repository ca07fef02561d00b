package interceptor

import (
	"time"

	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// OperationalAttribute is the chain's ninth stage: stamp
// createTimestamp/modifyTimestamp on successful Add/Modify (the
// clock-bearing half of assignOperational, left out of the store itself so
// WAL replay stays deterministic - see store.Store.Touch), and strip
// operational attributes from search/lookup results unless the requestor
// asked for them via "+" or the attribute's own name.
type OperationalAttribute struct {
	Base
	Reg   *schema.Registry
	Store *store.Store
	Now   func() time.Time
}

func NewOperationalAttribute(reg *schema.Registry, st *store.Store) *OperationalAttribute {
	return &OperationalAttribute{Reg: reg, Store: st}
}

func (o *OperationalAttribute) Name() string { return "OperationalAttribute" }

func (o *OperationalAttribute) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func generalizedTime(t time.Time) []byte {
	return []byte(t.UTC().Format("20060102150405Z"))
}

func (o *OperationalAttribute) OnAdd(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	return o.Store.Touch(ctx.DN, schema.AttrCreateTimestamp, "createTimestamp", generalizedTime(o.now()))
}

func (o *OperationalAttribute) OnModify(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	return o.Store.Touch(ctx.DN, schema.AttrModifyTimestamp, "modifyTimestamp", generalizedTime(o.now()))
}

func (o *OperationalAttribute) OnRename(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	target := ctx.DN
	if ctx.NewRDN != nil {
		target = ctx.DN.Parent().Child(*ctx.NewRDN)
	}
	return o.Store.Touch(target, schema.AttrModifyTimestamp, "modifyTimestamp", generalizedTime(o.now()))
}

func (o *OperationalAttribute) OnMove(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	target := ctx.DN
	if ctx.NewSuperior != nil {
		target = ctx.NewSuperior.Child(ctx.DN.RDN())
	}
	return o.Store.Touch(target, schema.AttrModifyTimestamp, "modifyTimestamp", generalizedTime(o.now()))
}

// strip returns a copy of e with operational attributes removed unless
// ctx requested them.
func (o *OperationalAttribute) strip(ctx *OpContext, e *store.Entry) *store.Entry {
	out := e.Clone()
	for oid, attr := range out.Attributes {
		at, err := o.Reg.LookupAttributeType(oid)
		if err != nil || !at.Usage.IsOperational() {
			continue
		}
		if !ctx.WantsAttr(attr.UserName) && !ctx.WantsAttr(oid) {
			delete(out.Attributes, oid)
		}
	}
	return out
}

func (o *OperationalAttribute) OnSearch(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	if ctx.Result == nil {
		return nil
	}
	for i, e := range ctx.Result.Entries {
		ctx.Result.Entries[i] = o.strip(ctx, e)
	}
	return nil
}

func (o *OperationalAttribute) OnLookup(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	if ctx.Result == nil {
		return nil
	}
	for i, e := range ctx.Result.Entries {
		ctx.Result.Entries[i] = o.strip(ctx, e)
	}
	return nil
}
