package schema

import "fmt"

// CheckRefs validates the registry's referential-integrity rules:
// every attribute type's syntax-oid and matching-rule-oid resolve, every
// object class's must/may lists resolve, no cycles in AttributeType SUP
// chains, and every STRUCTURAL class's superior chain terminates in the
// root class ("top").
func (r *Registry) CheckRefs() []error {
	var errs []error

	r.IterAttributeTypes(func(at *AttributeType) bool {
		if at.Syntax != "" {
			if _, err := r.LookupSyntax(at.Syntax); err != nil {
				errs = append(errs, fmt.Errorf("attributeType %s: syntax %s: %w", at.Name(), at.Syntax, err))
			}
		}
		for _, mrOID := range []string{at.Equality, at.Ordering, at.Substr} {
			if mrOID == "" {
				continue
			}
			if _, err := r.LookupMatchingRule(mrOID); err != nil {
				errs = append(errs, fmt.Errorf("attributeType %s: matching rule %s: %w", at.Name(), mrOID, err))
			}
		}
		if at.Superior != "" {
			if cycle := r.attributeSuperiorCycle(at.Name(), map[string]bool{}); cycle {
				errs = append(errs, fmt.Errorf("attributeType %s: SUP cycle detected", at.Name()))
			}
		}
		return true
	})

	r.IterObjectClasses(func(oc *ObjectClass) bool {
		for _, m := range oc.Must {
			if _, err := r.LookupAttributeType(m); err != nil {
				errs = append(errs, fmt.Errorf("objectClass %s: MUST %s: %w", oc.Name(), m, err))
			}
		}
		for _, m := range oc.May {
			if _, err := r.LookupAttributeType(m); err != nil {
				errs = append(errs, fmt.Errorf("objectClass %s: MAY %s: %w", oc.Name(), m, err))
			}
		}
		if oc.Kind == KindStructural {
			if !r.structuralChainReachesTop(oc, map[string]bool{}) {
				errs = append(errs, fmt.Errorf("objectClass %s: STRUCTURAL superior chain does not terminate at top", oc.Name()))
			}
		}
		return true
	})

	return errs
}

func (r *Registry) attributeSuperiorCycle(name string, seen map[string]bool) bool {
	if seen[fold(name)] {
		return true
	}
	seen[fold(name)] = true
	at, err := r.LookupAttributeType(name)
	if err != nil || at.Superior == "" {
		return false
	}
	return r.attributeSuperiorCycle(at.Superior, seen)
}

func (r *Registry) structuralChainReachesTop(oc *ObjectClass, seen map[string]bool) bool {
	if fold(oc.Name()) == "top" {
		return true
	}
	if seen[fold(oc.Name())] {
		return false // cycle, not a valid chain to top
	}
	seen[fold(oc.Name())] = true
	if len(oc.Superiors) == 0 {
		return false
	}
	for _, sup := range oc.Superiors {
		supOC, err := r.LookupObjectClass(sup)
		if err != nil {
			continue
		}
		if r.structuralChainReachesTop(supOC, seen) {
			return true
		}
	}
	return false
}

// ObjectClassClosure returns oc and every superior class transitively
// reachable from it (used to compute the MUST-attribute union of an
// entry's classes).
func (r *Registry) ObjectClassClosure(names []string) []*ObjectClass {
	seen := map[string]bool{}
	var out []*ObjectClass
	var walk func(string)
	walk = func(name string) {
		if seen[fold(name)] {
			return
		}
		seen[fold(name)] = true
		oc, err := r.LookupObjectClass(name)
		if err != nil {
			return
		}
		out = append(out, oc)
		for _, sup := range oc.Superiors {
			walk(sup)
		}
	}
	for _, n := range names {
		walk(n)
	}
	return out
}
