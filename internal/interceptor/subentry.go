package interceptor

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
	"github.com/oba-directory/obad/internal/subentry"
)

// Subentry is the chain's tenth stage: reject subentry object-class
// entries whose subtreeSpecification attribute does not parse, and reject
// entries that fail to carry a subtreeSpecification at all.
// Administrative-point bookkeeping for accepted subentries is the
// AdministrativePoint stage's job; expanding the collective attributes
// subentries define onto ordinary entries is the Collective stage's job.
type Subentry struct {
	Base
}

func NewSubentry() *Subentry { return &Subentry{} }

func (s *Subentry) Name() string { return "Subentry" }

func (s *Subentry) validate(attrs map[string]*store.Attribute, dn string) error {
	isSub := false
	if oc := attrs[schema.AttrObjectClass]; oc != nil {
		for _, v := range oc.Values {
			if string(v) == "subentry" {
				isSub = true
				break
			}
		}
	}
	if !isSub {
		return nil
	}
	spec := attrs[schema.AttrSubtreeSpec]
	if spec == nil || len(spec.Values) == 0 {
		return obaerr.New(obaerr.KindObjectClassViolation, "Subentry", dn)
	}
	if _, err := subentry.Parse(string(spec.Values[0])); err != nil {
		return obaerr.Wrap(obaerr.KindInvalidAttributeSyntax, "Subentry", dn, err)
	}
	return nil
}

func (s *Subentry) OnAdd(ctx *OpContext, next Handler) error {
	if err := s.validate(ctx.Attrs, ctx.DN.String()); err != nil {
		return err
	}
	return next(ctx)
}

// OnModify rejects a replace of subtreeSpecification with a value that
// fails to parse; it does not otherwise gate which attributes a subentry
// may have modified.
func (s *Subentry) OnModify(ctx *OpContext, next Handler) error {
	for _, m := range ctx.Mods {
		if m.Type != schema.AttrSubtreeSpec && m.Type != "subtreeSpecification" {
			continue
		}
		if m.Op != dn.ModReplace || len(m.Values) == 0 {
			continue
		}
		if _, err := subentry.Parse(string(m.Values[0])); err != nil {
			return obaerr.Wrap(obaerr.KindInvalidAttributeSyntax, "Subentry", ctx.DN.String(), err)
		}
	}
	return next(ctx)
}
