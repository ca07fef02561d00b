// Package matching implements the per-syntax normalize/compare/substring
// functions, keyed by matching-rule OID: case-insensitive directory
// strings, IA5 strings, numeric/boolean/DN syntaxes, all in a
// normalize-then-compare shape.
package matching

import (
	"strings"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/schema"
)

// Ordering mirrors the three-way comparison result of strings.Compare.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// Rule is the normalize/compare/substring-match triple for one matching
// rule OID.
type Rule struct {
	Normalize func(raw string) string
	Compare   func(a, b string) Ordering // valid only if Ordering-capable
	Substring func(value string, anchor, final string, any []string) bool
}

// registry maps matching-rule OID to its Rule.
var registry = map[string]*Rule{
	schema.MatchCaseIgnoreMatch:         {Normalize: normalizeCaseIgnore, Compare: compareCaseIgnore, Substring: substringCaseIgnore},
	schema.MatchCaseIgnoreOrderingMatch: {Normalize: normalizeCaseIgnore, Compare: compareCaseIgnore},
	schema.MatchCaseIgnoreSubstrMatch:   {Normalize: normalizeCaseIgnore, Substring: substringCaseIgnore},
	schema.MatchDistinguishedNameMatch:  {Normalize: normalizeDN, Compare: compareExact},
	schema.MatchIntegerMatch:            {Normalize: normalizeInteger, Compare: compareInteger},
	schema.MatchBooleanMatch:            {Normalize: normalizeBoolean, Compare: compareExact},
	schema.MatchOctetStringMatch:        {Normalize: normalizeNoop, Compare: compareExact},
	schema.MatchGeneralizedTimeMatch:    {Normalize: normalizeNoop, Compare: compareExact},
	schema.MatchNumericStringMatch:      {Normalize: normalizeNumericString, Compare: compareExact},
}

// Lookup returns the Rule for a matching-rule OID, or nil if unregistered
// (callers fall back to exact-byte comparison for unknown rules).
func Lookup(oid string) *Rule { return registry[oid] }

// Normalize normalizes raw under ruleOID, or returns raw unchanged if the
// rule is unknown.
func Normalize(ruleOID, raw string) string {
	if r := registry[ruleOID]; r != nil && r.Normalize != nil {
		return r.Normalize(raw)
	}
	return raw
}

// Compare compares a and b under ruleOID.
func Compare(ruleOID, a, b string) Ordering {
	if r := registry[ruleOID]; r != nil && r.Compare != nil {
		return r.Compare(a, b)
	}
	return compareExact(a, b)
}

func normalizeCaseIgnore(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func compareCaseIgnore(a, b string) Ordering {
	return compareExact(normalizeCaseIgnore(a), normalizeCaseIgnore(b))
}

func substringCaseIgnore(value, anchor, final string, any []string) bool {
	v := normalizeCaseIgnore(value)
	if anchor != "" && !strings.HasPrefix(v, normalizeCaseIgnore(anchor)) {
		return false
	}
	if final != "" && !strings.HasSuffix(v, normalizeCaseIgnore(final)) {
		return false
	}
	pos := 0
	if anchor != "" {
		pos = len(normalizeCaseIgnore(anchor))
	}
	for _, a := range any {
		na := normalizeCaseIgnore(a)
		idx := strings.Index(v[pos:], na)
		if idx < 0 {
			return false
		}
		pos += idx + len(na)
	}
	return true
}

func normalizeDN(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normalizeInteger(s string) string { return strings.TrimLeft(strings.TrimSpace(s), "0") }

func compareInteger(a, b string) Ordering {
	na, nb := normalizeInteger(a), normalizeInteger(b)
	if len(na) != len(nb) {
		if len(na) < len(nb) {
			return Less
		}
		return Greater
	}
	return compareExact(na, nb)
}

func normalizeBoolean(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func normalizeNoop(s string) string { return s }

func normalizeNumericString(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func compareExact(a, b string) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

// ApproximateMatch compares two values by a Soundex-like phonetic key,
// matching only up to that key's equivalence class.
func ApproximateMatch(a, b string) bool {
	return soundex(a) == soundex(b)
}

func soundex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	code := func(r byte) byte {
		switch r {
		case 'B', 'F', 'P', 'V':
			return '1'
		case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
			return '2'
		case 'D', 'T':
			return '3'
		case 'L':
			return '4'
		case 'M', 'N':
			return '5'
		case 'R':
			return '6'
		}
		return 0
	}
	var out strings.Builder
	out.WriteByte(s[0])
	last := code(s[0])
	for i := 1; i < len(s) && out.Len() < 4; i++ {
		c := code(s[i])
		if c != 0 && c != last {
			out.WriteByte(c)
		}
		last = c
	}
	for out.Len() < 4 {
		out.WriteByte('0')
	}
	return out.String()
}

// ValidateSyntax reports whether raw is a well-formed value of the LDAP
// syntax identified by syntaxOID. Syntaxes without a concrete grammar
// check here (directory string, IA5 string, octet string, generalized
// time) accept any value: free-text syntaxes are validated by their
// matching rule, not by a separate grammar.
func ValidateSyntax(syntaxOID, raw string) bool {
	switch syntaxOID {
	case schema.SyntaxBoolean:
		switch raw {
		case "TRUE", "FALSE":
			return true
		default:
			return false
		}
	case schema.SyntaxInteger:
		return validInteger(raw)
	case schema.SyntaxOID:
		return validOID(raw)
	case schema.SyntaxDN:
		_, err := dn.Parse(raw)
		return err == nil
	default:
		return true
	}
}

func validInteger(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' {
		i = 1
	}
	if i >= len(s) {
		return false
	}
	if s[i] == '0' && i+1 < len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// validOID checks the RFC 4512 oid grammar: either a descriptor (a
// letter followed by letters, digits or hyphens) or a dotted-decimal
// numericoid.
func validOID(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		for _, c := range s {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-') {
				return false
			}
		}
		return true
	}
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if p[0] == '0' && len(p) > 1 {
			return false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
