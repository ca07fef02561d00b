package interceptor

import (
	"github.com/oba-directory/obad/internal/acl"
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// AciAuthorization is the chain's fourth stage: evaluate the ACI tuples
// governing the target entry against the bound principal's user class,
// authentication level and the operation's micro-operation.
//
// ACI tuples are read from each candidate entry's "aci" attribute and
// inherited down the subtree from every ancestor.
type AciAuthorization struct {
	Base
	Store   *store.Store
	Eval    *acl.Evaluator
	Enabled bool
}

func NewAciAuthorization(st *store.Store, enabled bool) *AciAuthorization {
	ev := acl.NewEvaluator()
	ev.Reg = st.Registry()
	return &AciAuthorization{Store: st, Eval: ev, Enabled: enabled}
}

func (a *AciAuthorization) Name() string { return "AciAuthorization" }

// tuplesFor collects the ACI tuples governing targetID: its own "aci"
// attribute plus every ancestor's, up to and including the root, since an
// ACI specified at an entry governs its whole subtree.
func (a *AciAuthorization) tuplesFor(targetID store.EntryID) []acl.ACI {
	var out []acl.ACI
	cur := targetID
	seen := map[store.EntryID]bool{}
	for {
		if seen[cur] {
			break
		}
		seen[cur] = true
		if e, err := a.Store.LookupByID(cur); err == nil {
			out = append(out, acl.ParseEntryACIs(e.Values(schema.AttrACI))...)
		}
		parent, ok := a.Store.ParentID(cur)
		if !ok || parent == cur {
			break
		}
		cur = parent
	}
	return out
}

// groupsFor resolves every groupOfNames entry that lists bindDN as a
// member, for UserGroup matching.
func (a *AciAuthorization) groupsFor(bindDN dn.DN) []dn.DN {
	var out []dn.DN
	for _, id := range a.Store.AllIDs() {
		e, err := a.Store.LookupByID(id)
		if err != nil {
			continue
		}
		isGroup := false
		for _, oc := range e.ObjectClasses() {
			if oc == "groupOfNames" {
				isGroup = true
				break
			}
		}
		if !isGroup {
			continue
		}
		for _, v := range e.Values(schema.AttrMember) {
			memberDN, err := dn.Parse(string(v))
			if err == nil && memberDN.Equal(bindDN, nil) {
				out = append(out, e.NormDN)
				break
			}
		}
	}
	return out
}

func (a *AciAuthorization) subject(ctx *OpContext) acl.Subject {
	subj := acl.Subject{Anonymous: true}
	if ctx.Session != nil && !ctx.Session.Anonymous {
		bindDN, err := dn.Parse(ctx.Session.BindDN)
		if err == nil {
			subj = acl.Subject{BindDN: bindDN, AuthLevel: ctx.Session.AuthLevel, Groups: a.groupsFor(bindDN)}
			if e, lookupErr := a.Store.Lookup(bindDN); lookupErr == nil {
				// Subtree user classes with a refinement filter match
				// against the principal's own entry.
				subj.Entry = e
			}
		}
	}
	return subj
}

func (a *AciAuthorization) check(ctx *OpContext, attrOID string, op acl.MicroOp) error {
	if !a.Enabled {
		return nil
	}
	id, ok := a.Store.IDFor(ctx.DN)
	if !ok {
		// Absent targets (e.g. Add under a not-yet-existing DN) are
		// authorized against the parent's tuples.
		id, ok = a.Store.IDFor(ctx.DN.Parent())
		if !ok {
			return nil
		}
	}
	tuples := a.tuplesFor(id)
	subj := a.subject(ctx)
	req := acl.Request{Target: ctx.DN, TargetParent: ctx.DN.Parent(), AttrOID: attrOID, Op: op}
	if !a.Eval.Allowed(tuples, subj, req) {
		return obaerr.New(obaerr.KindInsufficientAccessRights, "AciAuthorization", ctx.DN.String())
	}
	return nil
}

func (a *AciAuthorization) OnAdd(ctx *OpContext, next Handler) error {
	if err := a.check(ctx, "", acl.OpAdd); err != nil {
		return err
	}
	return next(ctx)
}
func (a *AciAuthorization) OnModify(ctx *OpContext, next Handler) error {
	if err := a.check(ctx, "", acl.OpWrite); err != nil {
		return err
	}
	return next(ctx)
}
func (a *AciAuthorization) OnDelete(ctx *OpContext, next Handler) error {
	if err := a.check(ctx, "", acl.OpRemove); err != nil {
		return err
	}
	return next(ctx)
}
func (a *AciAuthorization) OnRename(ctx *OpContext, next Handler) error {
	if err := a.check(ctx, "", acl.OpRename); err != nil {
		return err
	}
	return next(ctx)
}
func (a *AciAuthorization) OnMove(ctx *OpContext, next Handler) error {
	if err := a.check(ctx, "", acl.OpRename); err != nil {
		return err
	}
	return next(ctx)
}
func (a *AciAuthorization) OnSearch(ctx *OpContext, next Handler) error {
	if err := a.check(ctx, "", acl.OpSearch); err != nil {
		return err
	}
	return next(ctx)
}
func (a *AciAuthorization) OnLookup(ctx *OpContext, next Handler) error {
	if err := a.check(ctx, "", acl.OpRead); err != nil {
		return err
	}
	return next(ctx)
}
func (a *AciAuthorization) OnCompare(ctx *OpContext, next Handler) error {
	if err := a.check(ctx, ctx.CompareAttr, acl.OpCompare); err != nil {
		return err
	}
	return next(ctx)
}
