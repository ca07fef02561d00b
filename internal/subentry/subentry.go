// Package subentry implements subtree-specification evaluation and
// collective-attribute expansion at lookup time.
//
// The brace-delimited key/value-list tokenizer mirrors
// internal/schema/parser.go's approach to the similarly bracketed RFC 4512
// schema grammar, reused here for the RFC 3672 subtreeSpecification
// grammar rather than copied verbatim.
package subentry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/filter"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// Specification is a parsed subtreeSpecification value (RFC 3672,
// simplified to the clauses this package covers): a base relative to the
// administrative point, a set of specific exclusions, a depth range, and
// an optional refinement filter restricting which entries it covers.
type Specification struct {
	Base       dn.DN // relative to the administrative point
	Exclusions []dn.DN
	MinDepth   int
	MaxDepth   int // -1 means unbounded
	Refinement *filter.Filter
}

// Parse reads a subtreeSpecification value in the brace-delimited form
// `{ base "ou=people", minimum 1, maximum 3, specificExclusions
// {chopBefore:"ou=temp"}, specificationFilter (objectClass=person) }`.
// Every clause is optional; an empty string yields the specification that
// covers the whole administrative point's subtree.
func Parse(raw string) (*Specification, error) {
	spec := &Specification{MaxDepth: -1}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return spec, nil
	}
	if !strings.HasPrefix(raw, "{") || !strings.HasSuffix(raw, "}") {
		return nil, fmt.Errorf("subentry: subtreeSpecification must be brace-delimited: %q", raw)
	}
	body := strings.TrimSpace(raw[1 : len(raw)-1])
	for _, clause := range splitClauses(body) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if err := spec.applyClause(clause); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func (s *Specification) applyClause(clause string) error {
	switch {
	case strings.HasPrefix(clause, "base"):
		val := strings.TrimSpace(strings.TrimPrefix(clause, "base"))
		val = strings.Trim(val, `"`)
		d, err := dn.Parse(val)
		if err != nil {
			return fmt.Errorf("subentry: bad base clause %q: %w", clause, err)
		}
		s.Base = d
	case strings.HasPrefix(clause, "minimum"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(clause, "minimum")))
		if err != nil {
			return fmt.Errorf("subentry: bad minimum clause %q: %w", clause, err)
		}
		s.MinDepth = n
	case strings.HasPrefix(clause, "maximum"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(clause, "maximum")))
		if err != nil {
			return fmt.Errorf("subentry: bad maximum clause %q: %w", clause, err)
		}
		s.MaxDepth = n
	case strings.HasPrefix(clause, "specificExclusions"):
		excl, err := parseExclusions(clause)
		if err != nil {
			return err
		}
		s.Exclusions = excl
	case strings.HasPrefix(clause, "specificationFilter"):
		val := strings.TrimSpace(strings.TrimPrefix(clause, "specificationFilter"))
		f, err := filter.ParseString(val)
		if err != nil {
			return fmt.Errorf("subentry: bad specificationFilter clause %q: %w", clause, err)
		}
		s.Refinement = &f
	default:
		return fmt.Errorf("subentry: unrecognized clause %q", clause)
	}
	return nil
}

func parseExclusions(clause string) ([]dn.DN, error) {
	start := strings.Index(clause, "{")
	end := strings.LastIndex(clause, "}")
	if start < 0 || end < 0 || end < start {
		return nil, fmt.Errorf("subentry: bad specificExclusions clause %q", clause)
	}
	body := clause[start+1 : end]
	var out []dn.DN
	for _, item := range splitClauses(body) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		idx := strings.Index(item, ":")
		if idx < 0 {
			return nil, fmt.Errorf("subentry: bad exclusion item %q", item)
		}
		val := strings.Trim(strings.TrimSpace(item[idx+1:]), `"`)
		d, err := dn.Parse(val)
		if err != nil {
			return nil, fmt.Errorf("subentry: bad exclusion DN %q: %w", val, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// splitClauses splits a clause list on top-level commas, respecting
// nested braces and quoted strings (subtreeSpecification clauses may
// themselves contain a parenthesized filter with commas inside string
// values, though not in the subset this package handles).
func splitClauses(s string) []string {
	var out []string
	depth := 0
	inQuote := false
	start := 0
	for i, r := range s {
		switch r {
		case '"':
			inQuote = !inQuote
		case '{':
			if !inQuote {
				depth++
			}
		case '}':
			if !inQuote {
				depth--
			}
		case ',':
			if !inQuote && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// Covers reports whether target (at depth levels below the administrative
// point, with normDN its normalized DN) falls within spec's subtree:
// within [minDepth, maxDepth] of base, not under a specific exclusion, and
// matching the refinement filter if one is set.
func (s *Specification) Covers(reg *schema.Registry, adminPoint dn.DN, target *store.Entry, norm dn.Normalizer) bool {
	base := adminPoint
	if !s.Base.IsRoot() {
		base = dn.DN{RDNs: append(append([]dn.RDN(nil), s.Base.RDNs...), adminPoint.RDNs...)}
	}
	if !base.AncestorOf(target.NormDN, norm) {
		return false
	}
	depth := len(target.NormDN.RDNs) - len(base.RDNs)
	if depth < s.MinDepth {
		return false
	}
	if s.MaxDepth >= 0 && depth > s.MaxDepth {
		return false
	}
	for _, excl := range s.Exclusions {
		exclDN := dn.DN{RDNs: append(append([]dn.RDN(nil), excl.RDNs...), base.RDNs...)}
		if exclDN.AncestorOf(target.NormDN, norm) {
			return false
		}
	}
	if s.Refinement != nil && !filter.Evaluate(reg, *s.Refinement, target) {
		return false
	}
	return true
}
