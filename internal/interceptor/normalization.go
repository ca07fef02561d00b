package interceptor

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/filter"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
)

// Normalization is the chain's first stage: check DNs and attribute
// names against the schema before anything downstream sees the request.
// It rejects any attribute identifier that does not resolve in the
// registry (UndefinedAttributeType), unless the registry is running in
// quirks mode. It does not rewrite the request: DNs and attribute
// identifiers reach later stages in the form the client sent them.
type Normalization struct {
	Base
	Reg *schema.Registry
}

func NewNormalization(reg *schema.Registry) *Normalization {
	return &Normalization{Reg: reg}
}

func (n *Normalization) Name() string { return "Normalization" }

func (n *Normalization) resolvable(id string) bool {
	if n.Reg.QuirksMode() {
		return true
	}
	_, err := n.Reg.LookupAttributeType(id)
	return err == nil
}

func (n *Normalization) checkDN(d dn.DN) error {
	for _, rdn := range d.RDNs {
		for _, atv := range rdn.ATVs {
			if !n.resolvable(atv.Type) {
				return obaerr.New(obaerr.KindUndefinedAttributeType, "Normalization", atv.Type)
			}
		}
	}
	return nil
}

func (n *Normalization) checkFilterAttrs(f filter.Filter) error {
	switch f.Kind {
	case filter.KindAnd, filter.KindOr:
		for _, c := range f.Children {
			if err := n.checkFilterAttrs(c); err != nil {
				return err
			}
		}
		return nil
	case filter.KindNot:
		if f.Child == nil {
			return nil
		}
		return n.checkFilterAttrs(*f.Child)
	default:
		if f.Attr == "" {
			return nil
		}
		if !n.resolvable(f.Attr) {
			return obaerr.New(obaerr.KindUndefinedAttributeType, "Normalization", f.Attr)
		}
		return nil
	}
}

func (n *Normalization) OnAdd(ctx *OpContext, next Handler) error {
	if err := n.checkDN(ctx.DN); err != nil {
		return err
	}
	for oid := range ctx.Attrs {
		if !n.resolvable(oid) {
			return obaerr.New(obaerr.KindUndefinedAttributeType, "Normalization", oid)
		}
	}
	return next(ctx)
}

func (n *Normalization) OnModify(ctx *OpContext, next Handler) error {
	if err := n.checkDN(ctx.DN); err != nil {
		return err
	}
	for _, m := range ctx.Mods {
		if !n.resolvable(m.Type) {
			return obaerr.New(obaerr.KindUndefinedAttributeType, "Normalization", m.Type)
		}
	}
	return next(ctx)
}

func (n *Normalization) OnDelete(ctx *OpContext, next Handler) error {
	if err := n.checkDN(ctx.DN); err != nil {
		return err
	}
	return next(ctx)
}

func (n *Normalization) OnRename(ctx *OpContext, next Handler) error {
	if err := n.checkDN(ctx.DN); err != nil {
		return err
	}
	if ctx.NewRDN != nil {
		for _, atv := range ctx.NewRDN.ATVs {
			if !n.resolvable(atv.Type) {
				return obaerr.New(obaerr.KindUndefinedAttributeType, "Normalization", atv.Type)
			}
		}
	}
	return next(ctx)
}

func (n *Normalization) OnMove(ctx *OpContext, next Handler) error {
	if err := n.checkDN(ctx.DN); err != nil {
		return err
	}
	if ctx.NewSuperior != nil {
		if err := n.checkDN(*ctx.NewSuperior); err != nil {
			return err
		}
	}
	return next(ctx)
}

func (n *Normalization) OnSearch(ctx *OpContext, next Handler) error {
	if err := n.checkDN(ctx.DN); err != nil {
		return err
	}
	if err := n.checkFilterAttrs(ctx.Filter); err != nil {
		return err
	}
	for _, a := range ctx.RequestedAttrs {
		if a == "*" || a == "+" {
			continue
		}
		if !n.resolvable(a) {
			return obaerr.New(obaerr.KindUndefinedAttributeType, "Normalization", a)
		}
	}
	return next(ctx)
}

func (n *Normalization) OnLookup(ctx *OpContext, next Handler) error {
	if err := n.checkDN(ctx.DN); err != nil {
		return err
	}
	return next(ctx)
}

func (n *Normalization) OnCompare(ctx *OpContext, next Handler) error {
	if err := n.checkDN(ctx.DN); err != nil {
		return err
	}
	if !n.resolvable(ctx.CompareAttr) {
		return obaerr.New(obaerr.KindUndefinedAttributeType, "Normalization", ctx.CompareAttr)
	}
	return next(ctx)
}
