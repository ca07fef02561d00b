package interceptor

import (
	"errors"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/matching"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// Schema is the chain's eighth stage: validate Add/Modify against
// object-class, attribute, and syntax constraints before the operation
// reaches the store; forbid removal of all structural classes and forbid
// changing the RDN's composing value via Modify (that must go through
// ModifyDN).
//
// store.Modify also enforces these invariants (schema.ValidateEntry,
// schema.RDNAttributeAllowed) on its own; store.Add does not validate
// against the schema and relies on this stage. This stage makes the
// failure surface as the chain's own typed error before any WAL write is
// attempted, and runs the per-value syntax checking that the store does
// not do.
type Schema struct {
	Base
	Reg   *schema.Registry
	Store *store.Store
}

func NewSchema(reg *schema.Registry, st *store.Store) *Schema {
	return &Schema{Reg: reg, Store: st}
}

func (s *Schema) Name() string { return "Schema" }

// checkSyntax validates every value of every attribute in attrs against
// its registered syntax.
func (s *Schema) checkSyntax(attrs map[string]*store.Attribute) error {
	for _, a := range attrs {
		at, err := s.Reg.LookupAttributeType(a.OID)
		if err != nil {
			continue // Normalization already rejected undefined types
		}
		for _, v := range a.Values {
			if !matching.ValidateSyntax(at.Syntax, string(v)) {
				return obaerr.Wrap(obaerr.KindInvalidAttributeSyntax, "Schema", "", errors.New("malformed value for attribute "+a.UserName))
			}
		}
	}
	return nil
}

func (s *Schema) OnAdd(ctx *OpContext, next Handler) error {
	if err := s.checkSyntax(ctx.Attrs); err != nil {
		return err
	}
	view := &store.Entry{Attributes: ctx.Attrs}
	if errs := s.Reg.ValidateEntry(view); len(errs) > 0 {
		return obaerr.Wrap(obaerr.KindObjectClassViolation, "Schema.Add", ctx.DN.String(), errors.New(errs[0].Message))
	}
	return next(ctx)
}

func (s *Schema) OnModify(ctx *OpContext, next Handler) error {
	e, err := s.Store.Lookup(ctx.DN)
	if err != nil {
		return next(ctx) // let the terminal stage report NoSuchObject
	}
	scratch := e.Clone()
	rdn := ctx.DN.RDN()
	for _, mod := range ctx.Mods {
		oid, userName := resolveAttrIdentityForSchema(s.Reg, mod.Type)
		rdnValue, onRDN := rdn.HasAttribute(mod.Type)
		switch mod.Op {
		case dn.ModAdd:
			scratch.AddValues(oid, userName, mod.Values, false)
		case dn.ModDelete:
			if onRDN {
				wholeAttrRemoved := len(mod.Values) == 0
				if wholeAttrRemoved {
					return obaerr.New(obaerr.KindNotAllowedOnRDN, "Schema.Modify", ctx.DN.String())
				}
				for _, v := range mod.Values {
					if !schema.RDNAttributeAllowed(oid, oid, rdnValue, string(v), false) {
						return obaerr.New(obaerr.KindNotAllowedOnRDN, "Schema.Modify", ctx.DN.String())
					}
				}
			}
			scratch.RemoveValues(oid, mod.Values)
		case dn.ModReplace:
			if onRDN && len(mod.Values) == 0 {
				return obaerr.New(obaerr.KindNotAllowedOnRDN, "Schema.Modify", ctx.DN.String())
			}
			scratch.SetAttribute(oid, userName, mod.Values, false)
		}
	}
	if err := s.checkSyntax(scratch.Attributes); err != nil {
		return err
	}
	if errs := s.Reg.ValidateEntry(scratch); len(errs) > 0 {
		return obaerr.Wrap(obaerr.KindObjectClassViolation, "Schema.Modify", ctx.DN.String(), errors.New(errs[0].Message))
	}
	return next(ctx)
}

func resolveAttrIdentityForSchema(reg *schema.Registry, typeName string) (oid, userName string) {
	if at, err := reg.LookupAttributeType(typeName); err == nil {
		return at.OID, at.Name()
	}
	return typeName, typeName
}
