package schema

import (
	"fmt"
	"strings"
)

// ParseAttributeTypeDescription parses an RFC 4512 §4.1.2 attribute type
// description: `( oid NAME ( 'n1' 'n2' ) DESC 'd' SUP sup EQUALITY mr
// ORDERING mr SUBSTR mr SYNTAX oid SINGLE-VALUE COLLECTIVE NO-USER-
// MODIFICATION USAGE kw )`. Token scanning is a bracket-and-keyword walker
// cross-checked against JesseCoretta-go-dirsyn/schema.go's clause table.
func ParseAttributeTypeDescription(desc string, quirks bool) (*AttributeType, error) {
	toks, err := tokenizeSchemaDesc(desc)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("schema: empty attribute type description")
	}
	at := &AttributeType{OID: toks[0]}
	if !isNumericOID(at.OID) && !quirks {
		return nil, fmt.Errorf("schema: %q is not numeric (quirks mode disabled)", at.OID)
	}
	i := 1
	for i < len(toks) {
		switch strings.ToUpper(toks[i]) {
		case "NAME":
			names, n := parseQDescrs(toks, i+1)
			at.Names = names
			i += n + 1
		case "DESC":
			at.Desc, i = toks[i+1], i+2
		case "OBSOLETE":
			at.Obsolete, i = true, i+1
		case "SUP":
			at.Superior, i = toks[i+1], i+2
		case "EQUALITY":
			at.Equality, i = toks[i+1], i+2
		case "ORDERING":
			at.Ordering, i = toks[i+1], i+2
		case "SUBSTR":
			at.Substr, i = toks[i+1], i+2
		case "SYNTAX":
			syn := toks[i+1]
			if idx := strings.IndexByte(syn, '{'); idx >= 0 {
				syn = syn[:idx]
			}
			at.Syntax, i = syn, i+2
		case "SINGLE-VALUE":
			at.SingleValue, i = true, i+1
		case "COLLECTIVE":
			at.Collective, i = true, i+1
		case "NO-USER-MODIFICATION":
			at.NoUserMod, i = true, i+1
		case "USAGE":
			at.Usage, i = parseUsage(toks[i+1]), i+2
		default:
			i++
		}
	}
	if len(at.Names) == 0 {
		at.Names = []string{at.OID}
	}
	return at, nil
}

// ParseObjectClassDescription parses an RFC 4512 §4.1.1 object class
// description.
func ParseObjectClassDescription(desc string, quirks bool) (*ObjectClass, error) {
	toks, err := tokenizeSchemaDesc(desc)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("schema: empty object class description")
	}
	oc := &ObjectClass{OID: toks[0], Kind: KindStructural}
	if !isNumericOID(oc.OID) && !quirks {
		return nil, fmt.Errorf("schema: %q is not numeric (quirks mode disabled)", oc.OID)
	}
	i := 1
	for i < len(toks) {
		switch strings.ToUpper(toks[i]) {
		case "NAME":
			names, n := parseQDescrs(toks, i+1)
			oc.Names = names
			i += n + 1
		case "DESC":
			oc.Desc, i = toks[i+1], i+2
		case "OBSOLETE":
			oc.Obsolete, i = true, i+1
		case "SUP":
			sups, n := parseOIDs(toks, i+1)
			oc.Superiors = sups
			i += n + 1
		case "STRUCTURAL":
			oc.Kind, i = KindStructural, i+1
		case "AUXILIARY":
			oc.Kind, i = KindAuxiliary, i+1
		case "ABSTRACT":
			oc.Kind, i = KindAbstract, i+1
		case "MUST":
			ats, n := parseOIDs(toks, i+1)
			oc.Must = ats
			i += n + 1
		case "MAY":
			ats, n := parseOIDs(toks, i+1)
			oc.May = ats
			i += n + 1
		default:
			i++
		}
	}
	if len(oc.Names) == 0 {
		oc.Names = []string{oc.OID}
	}
	return oc, nil
}

func parseUsage(s string) AttributeUsage {
	switch s {
	case "directoryOperation":
		return DirectoryOperation
	case "distributedOperation":
		return DistributedOperation
	case "dSAOperation":
		return DSAOperation
	default:
		return UserApplications
	}
}

// parseQDescrs parses either a single quoted name or a parenthesized list
// of quoted names, returning the names and the number of tokens consumed.
func parseQDescrs(toks []string, i int) ([]string, int) {
	if i >= len(toks) {
		return nil, 0
	}
	if toks[i] != "(" {
		return []string{unquote(toks[i])}, 1
	}
	var names []string
	n := 1
	for j := i + 1; j < len(toks) && toks[j] != ")"; j++ {
		names = append(names, unquote(toks[j]))
		n++
	}
	return names, n + 1
}

// parseOIDs parses either a single oid/name or a '$'-joined parenthesized
// list (RFC 4512 "oids" production).
func parseOIDs(toks []string, i int) ([]string, int) {
	if i >= len(toks) {
		return nil, 0
	}
	if toks[i] != "(" {
		return []string{toks[i]}, 1
	}
	var ids []string
	n := 1
	for j := i + 1; j < len(toks) && toks[j] != ")"; j++ {
		if toks[j] == "$" {
			continue
		}
		ids = append(ids, toks[j])
		n++
	}
	return ids, n + 1
}

func unquote(s string) string {
	return strings.Trim(s, "'")
}

// tokenizeSchemaDesc tokenizes the bracketed schema description grammar:
// the outer parens, bare keywords, single-quoted strings (kept whole even
// with embedded spaces) and '$' list separators. It has no quirks
// setting: a quoted DESC string is accepted whatever characters it holds,
// and no reserved-character check is made in either mode.
func tokenizeSchemaDesc(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '\'':
			j := i + 1
			for j < len(s) && s[j] != '\'' {
				j++
			}
			if j >= len(s) {
				return nil, fmt.Errorf("schema: unterminated quoted string in %q", s)
			}
			toks = append(toks, s[i:j+1])
			i = j + 1
		case c == '(' || c == ')' || c == '$':
			toks = append(toks, string(c))
			i++
		default:
			j := i
			for j < len(s) && s[j] != ' ' && s[j] != '(' && s[j] != ')' && s[j] != '$' {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	// unquote the whole-token quoted strings produced above.
	for idx, t := range toks {
		if len(t) >= 2 && t[0] == '\'' && t[len(t)-1] == '\'' {
			toks[idx] = t[1 : len(t)-1]
		}
	}
	return toks, nil
}
