package interceptor

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
)

// DefaultAuthorization is the chain's fifth stage: the fallback policy
// applied when ACI evaluation is disabled (AciAuthorization's Enabled is
// false). It checks writes only (Add, Modify, Delete, Rename, Move): an
// administrator DN may write anywhere; any other bound principal may
// write only their own entry; anonymous principals may write only if
// AllowAnonymousWrite permits it. Reads pass this stage unchecked.
type DefaultAuthorization struct {
	Base
	AdminDN             dn.DN
	AciEnabled          bool
	AllowAnonymousWrite bool
}

func NewDefaultAuthorization(adminDN dn.DN, aciEnabled bool) *DefaultAuthorization {
	return &DefaultAuthorization{AdminDN: adminDN, AciEnabled: aciEnabled}
}

func (d *DefaultAuthorization) Name() string { return "DefaultAuthorization" }

func (d *DefaultAuthorization) allowed(ctx *OpContext) bool {
	if d.AciEnabled {
		return true // AciAuthorization already made the decision
	}
	if ctx.Session == nil || ctx.Session.Anonymous {
		return d.AllowAnonymousWrite
	}
	bindDN, err := dn.Parse(ctx.Session.BindDN)
	if err != nil {
		return false
	}
	if bindDN.Equal(d.AdminDN, nil) {
		return true
	}
	return bindDN.Equal(ctx.DN, nil)
}

func (d *DefaultAuthorization) denyWrite(ctx *OpContext, next Handler) error {
	if !d.allowed(ctx) {
		return obaerr.New(obaerr.KindInsufficientAccessRights, "DefaultAuthorization", ctx.DN.String())
	}
	return next(ctx)
}

func (d *DefaultAuthorization) OnAdd(ctx *OpContext, next Handler) error    { return d.denyWrite(ctx, next) }
func (d *DefaultAuthorization) OnModify(ctx *OpContext, next Handler) error { return d.denyWrite(ctx, next) }
func (d *DefaultAuthorization) OnDelete(ctx *OpContext, next Handler) error { return d.denyWrite(ctx, next) }
func (d *DefaultAuthorization) OnRename(ctx *OpContext, next Handler) error { return d.denyWrite(ctx, next) }
func (d *DefaultAuthorization) OnMove(ctx *OpContext, next Handler) error   { return d.denyWrite(ctx, next) }
