package dn

import (
	"strings"

	"github.com/oba-directory/obad/internal/obaerr"
)

// DN is an ordered sequence of RDNs, least-significant (leaf) first, as
// produced by parsing left-to-right.
type DN struct {
	RDNs []RDN
}

// Normalizer resolves an attribute type to its normalized value form. The
// schema package supplies the real implementation (EQUALITY matching rule
// normalization); callers without schema context may pass a simple
// case-folding function.
type Normalizer func(attrType, value string) string

func foldCase(_ string, value string) string { return strings.ToLower(value) }

// Parse parses an RFC 4514 (with RFC 2253/1779 compatibility) distinguished
// name string. An empty string parses to the zero-length root DN.
func Parse(s string) (DN, error) {
	if strings.TrimSpace(s) == "" {
		return DN{}, nil
	}
	pieces := splitUnescaped(s, ',')
	// RFC 1779 compatibility: ';' is also accepted as an RDN separator.
	var rdns []RDN
	for _, p := range pieces {
		for _, q := range splitUnescaped(p, ';') {
			q = strings.TrimSpace(q)
			if q == "" {
				return DN{}, obaerr.New(obaerr.KindInvalidDNSyntax, "dn.Parse", s)
			}
			rdn, err := parseRDN(q)
			if err != nil {
				return DN{}, obaerr.Wrap(obaerr.KindInvalidDNSyntax, "dn.Parse", s, err)
			}
			rdns = append(rdns, rdn)
		}
	}
	return DN{RDNs: rdns}, nil
}

// MustParse parses s and panics on error; for use with literal DNs in tests
// and defaults.
func MustParse(s string) DN {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsRoot reports whether the DN has zero RDNs (the root/null DN).
func (d DN) IsRoot() bool { return len(d.RDNs) == 0 }

// RDN returns the leaf (most-significant... actually least-significant,
// i.e. first) RDN, or the zero RDN if d is the root.
func (d DN) RDN() RDN {
	if len(d.RDNs) == 0 {
		return RDN{}
	}
	return d.RDNs[0]
}

// Parent returns the DN with its leaf RDN removed.
func (d DN) Parent() DN {
	if len(d.RDNs) == 0 {
		return d
	}
	return DN{RDNs: d.RDNs[1:]}
}

// Child returns a new DN with rdn prepended as the new leaf.
func (d DN) Child(rdn RDN) DN {
	out := make([]RDN, 0, len(d.RDNs)+1)
	out = append(out, rdn)
	out = append(out, d.RDNs...)
	return DN{RDNs: out}
}

// Normalize returns d with every value passed through norm, producing a
// canonical-equality form. Normalize is idempotent: normalizing an
// already-normalized DN with the same norm function yields the same
// result, because norm itself must be idempotent.
func (d DN) Normalize(norm Normalizer) DN {
	if norm == nil {
		norm = foldCase
	}
	out := make([]RDN, len(d.RDNs))
	for i, r := range d.RDNs {
		atvs := make([]AttributeTypeAndValue, len(r.ATVs))
		for j, a := range r.ATVs {
			atvs[j] = AttributeTypeAndValue{
				Type:  strings.ToLower(a.Type),
				Value: norm(a.Type, a.Value),
			}
		}
		out[i] = RDN{ATVs: atvs}
	}
	return DN{RDNs: out}
}

// Equal reports normalized equality between d and other using norm (or
// case-folding if norm is nil).
func (d DN) Equal(other DN, norm Normalizer) bool {
	if len(d.RDNs) != len(other.RDNs) {
		return false
	}
	if norm == nil {
		norm = foldCase
	}
	fold := func(s string) string { return s } // values already normalized below
	a := d.Normalize(norm)
	b := other.Normalize(norm)
	for i := range a.RDNs {
		if !a.RDNs[i].EqualFold(b.RDNs[i], fold) {
			return false
		}
	}
	return true
}

// AncestorOf reports whether d is a proper or equal ancestor of other: i.e.
// other's DN, with its leading (len(other)-len(d)) RDNs stripped, equals d.
func (d DN) AncestorOf(other DN, norm Normalizer) bool {
	if len(d.RDNs) > len(other.RDNs) {
		return false
	}
	suffix := other.Suffix(len(d.RDNs))
	return d.Equal(suffix, norm)
}

// Suffix returns the trailing k RDNs of d. k must be <= len(d.RDNs).
func (d DN) Suffix(k int) DN {
	if k <= 0 {
		return DN{}
	}
	if k >= len(d.RDNs) {
		return d
	}
	start := len(d.RDNs) - k
	return DN{RDNs: append([]RDN(nil), d.RDNs[start:]...)}
}

// Style selects the rendering form for String/Render.
type Style int

const (
	StyleUser Style = iota
	StyleNormalized
)

// Render renders the DN in the requested style.
func (d DN) Render(style Style) string {
	if len(d.RDNs) == 0 {
		return ""
	}
	parts := make([]string, len(d.RDNs))
	for i, r := range d.RDNs {
		parts[i] = r.String()
	}
	s := strings.Join(parts, ",")
	if style == StyleNormalized {
		return strings.ToLower(s)
	}
	return s
}

func (d DN) String() string { return d.Render(StyleUser) }

// Depth returns the number of RDNs in the DN.
func (d DN) Depth() int { return len(d.RDNs) }
