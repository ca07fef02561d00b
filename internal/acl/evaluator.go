package acl

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// Subject is the evaluated principal side of an access decision: who is
// asking, from where, at what authentication level.
type Subject struct {
	BindDN    dn.DN
	Anonymous bool
	AuthLevel AuthenticationLevel
	// Groups lists the DNs of groups the principal is a member of, for
	// UserGroup matching. Resolving membership is the caller's job (it
	// needs internal/store); the evaluator only matches against the set
	// it is given.
	Groups []dn.DN
	// Entry is the bound principal's entry, consulted by Subtree user
	// classes that carry a refinement filter. Resolving it is likewise
	// the caller's job; nil is accepted, and base/depth/exclusion
	// clauses still evaluate against BindDN alone.
	Entry *store.Entry
}

// Request is the object side: what entry, what attribute (if any), what
// micro-operation.
type Request struct {
	Target       dn.DN
	TargetParent dn.DN // Target's immediate parent, for ParentOfEntry
	AttrOID      string // empty for whole-entry operations (Add/Delete/Rename/Move)
	Op           MicroOp
}

// Evaluator evaluates a set of ACI tuples against a Subject/Request pair:
// a precedence-ordered tuple list with deny-wins-at-equal-precedence.
type Evaluator struct {
	// DefaultAllow is consulted when no tuple matches at all; the
	// default-authorization stage supplies this separately, so the zero
	// value here (deny) is the right default for the ACI stage itself.
	DefaultAllow bool
	// Reg resolves attribute types for Subtree refinement filters. A nil
	// Reg makes any refinement-bearing Subtree class match nothing.
	Reg *schema.Registry
}

func NewEvaluator() *Evaluator { return &Evaluator{} }

// Allowed reports whether req is permitted against subj given tuples.
// Evaluation gathers every tuple whose user class, auth-level precondition
// and protected item all match; among those the highest Precedence wins,
// and a tie between a grant and a deny at the same precedence resolves to
// deny, erring toward denial rather than access when the rules disagree.
func (ev *Evaluator) Allowed(tuples []ACI, subj Subject, req Request) bool {
	matched := false
	best := ACI{}
	haveBest := false
	for _, t := range tuples {
		if !t.Ops.Has(req.Op) {
			continue
		}
		if !t.appliesTo(req.AttrOID) {
			continue
		}
		if !t.AuthLevel.Meets(subj.AuthLevel) {
			continue
		}
		if !ev.matchesAnyUserClass(t.UserClasses, subj, req) {
			continue
		}
		matched = true
		if !haveBest || t.Precedence > best.Precedence ||
			(t.Precedence == best.Precedence && !t.Grant) {
			best = t
			haveBest = true
		}
	}
	if !matched {
		return ev.DefaultAllow
	}
	return best.Grant
}

func (ev *Evaluator) matchesAnyUserClass(classes []UserClass, subj Subject, req Request) bool {
	for _, c := range classes {
		if ev.matchesUserClass(c, subj, req) {
			return true
		}
	}
	return false
}

func (ev *Evaluator) matchesUserClass(c UserClass, subj Subject, req Request) bool {
	switch c.Kind {
	case ClassAllUsers:
		return true
	case ClassThisEntry:
		return !subj.Anonymous && subj.BindDN.Equal(req.Target, nil)
	case ClassParentOfEntry:
		return !subj.Anonymous && subj.BindDN.Equal(req.TargetParent, nil)
	case ClassName:
		if subj.Anonymous {
			return false
		}
		for _, d := range c.Names {
			if subj.BindDN.Equal(d, nil) {
				return true
			}
		}
		return false
	case ClassUserGroup:
		if subj.Anonymous {
			return false
		}
		for _, member := range subj.Groups {
			for _, g := range c.Names {
				if member.Equal(g, nil) {
					return true
				}
			}
		}
		return false
	case ClassSubtree:
		if subj.Anonymous || c.Spec == nil {
			return false
		}
		if c.Spec.Refinement != nil && (subj.Entry == nil || ev.Reg == nil) {
			return false
		}
		target := subj.Entry
		if target == nil {
			target = store.NewEntry(0, subj.BindDN, subj.BindDN)
		}
		// The specification's base is absolute here, so the coverage
		// check runs against the root rather than an administrative
		// point.
		return c.Spec.Covers(ev.Reg, dn.DN{}, target, nil)
	default:
		return false
	}
}
