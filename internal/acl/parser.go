package acl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/subentry"
)

// ParseString parses one ACI tuple from its textual encoding, the form
// stored in an entry's "aci" attribute values. Real directory servers each
// invent their own concrete ACI grammar over the same abstract tuple
// model; this one is ours.
//
// Grammar (whitespace-separated fields):
//
//	<precedence> grant|deny (<op>[,<op>...]) to <item>[;<item>...] by <class>[;<class>...] [authLevel=none|simple|strong]
//
// item is one of:
//
//	entry
//	attr=<oid>[,<oid>...]
//	allvalues=<oid>[,<oid>...]
//	range=<filter>:<oid>[,<oid>...]
//
// class is one of:
//
//	allUsers | self | parent | dn=<DN> | group=<DN> | subtree=<DN> |
//	subtree={ base "<DN>", minimum <n>, maximum <n>, specificExclusions {...}, specificationFilter (...) }
//
// The braced subtree form takes the same clause syntax as a subentry's
// subtreeSpecification and may contain spaces.
func ParseString(s string) (ACI, error) {
	fields := strings.Fields(s)
	if len(fields) < 6 {
		return ACI{}, fmt.Errorf("acl: malformed tuple %q", s)
	}
	prec, err := strconv.Atoi(fields[0])
	if err != nil {
		return ACI{}, fmt.Errorf("acl: bad precedence in %q: %w", s, err)
	}
	a := ACI{Name: s, Precedence: prec}

	switch strings.ToLower(fields[1]) {
	case "grant":
		a.Grant = true
	case "deny":
		a.Grant = false
	default:
		return ACI{}, fmt.Errorf("acl: expected grant|deny, got %q", fields[1])
	}

	rest := fields[2:]
	opsField, rest, err := takeParenGroup(rest)
	if err != nil {
		return ACI{}, err
	}
	ops, err := parseOps(opsField)
	if err != nil {
		return ACI{}, err
	}
	a.Ops = ops

	if len(rest) == 0 || strings.ToLower(rest[0]) != "to" {
		return ACI{}, fmt.Errorf("acl: expected \"to\" in %q", s)
	}
	rest = rest[1:]
	if len(rest) == 0 {
		return ACI{}, fmt.Errorf("acl: missing protected items in %q", s)
	}
	items, err := parseItems(rest[0])
	if err != nil {
		return ACI{}, err
	}
	a.Items = items
	rest = rest[1:]

	if len(rest) == 0 || strings.ToLower(rest[0]) != "by" {
		return ACI{}, fmt.Errorf("acl: expected \"by\" in %q", s)
	}
	rest = rest[1:]
	classField, rest := takeClassField(rest)
	if classField == "" {
		return ACI{}, fmt.Errorf("acl: missing user classes in %q", s)
	}
	classes, err := parseClasses(classField)
	if err != nil {
		return ACI{}, err
	}
	a.UserClasses = classes

	a.AuthLevel = AuthNone
	for _, f := range rest {
		if strings.HasPrefix(strings.ToLower(f), "authlevel=") {
			level, err := parseAuthLevel(f[len("authLevel="):])
			if err != nil {
				return ACI{}, err
			}
			a.AuthLevel = level
		}
	}
	return a, nil
}

func takeParenGroup(fields []string) (inner string, rest []string, err error) {
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "(") {
		return "", nil, fmt.Errorf("acl: expected '(' group")
	}
	joined := strings.Join(fields, " ")
	open := strings.Index(joined, "(")
	close := strings.Index(joined, ")")
	if open == -1 || close == -1 || close < open {
		return "", nil, fmt.Errorf("acl: unbalanced parens in %q", joined)
	}
	inner = joined[open+1 : close]
	remainder := strings.TrimSpace(joined[close+1:])
	if remainder == "" {
		return inner, nil, nil
	}
	return inner, strings.Fields(remainder), nil
}

func parseOps(field string) (MicroOp, error) {
	var ops MicroOp
	for _, name := range strings.Split(field, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "read":
			ops |= OpRead
		case "add":
			ops |= OpAdd
		case "remove":
			ops |= OpRemove
		case "write":
			ops |= OpWrite
		case "compare":
			ops |= OpCompare
		case "search":
			ops |= OpSearch
		case "browse":
			ops |= OpBrowse
		case "export":
			ops |= OpExport
		case "import":
			ops |= OpImport
		case "rename":
			ops |= OpRename
		case "disclose":
			ops |= OpDisclose
		case "all":
			ops |= OpAll
		default:
			return 0, fmt.Errorf("acl: unknown micro-operation %q", name)
		}
	}
	return ops, nil
}

func parseItems(field string) ([]ProtectedItem, error) {
	var items []ProtectedItem
	for _, part := range strings.Split(field, ";") {
		part = strings.TrimSpace(part)
		switch {
		case part == "entry":
			items = append(items, Entry())
		case strings.HasPrefix(part, "attr="):
			items = append(items, AttributeType(splitCSV(part[len("attr="):])...))
		case strings.HasPrefix(part, "allvalues="):
			items = append(items, AllAttributeValues(splitCSV(part[len("allvalues="):])...))
		case strings.HasPrefix(part, "range="):
			body := part[len("range="):]
			idx := strings.LastIndex(body, ":")
			if idx == -1 {
				return nil, fmt.Errorf("acl: malformed range item %q", part)
			}
			items = append(items, RangeOfValues(body[:idx], splitCSV(body[idx+1:])...))
		default:
			return nil, fmt.Errorf("acl: unknown protected item %q", part)
		}
	}
	return items, nil
}

// takeClassField joins the fields making up the "by" clause, which may
// contain spaces once a braced subtree specification appears, stopping at
// the optional trailing authLevel= field.
func takeClassField(fields []string) (classField string, rest []string) {
	for i, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), "authlevel=") {
			return strings.Join(fields[:i], " "), fields[i:]
		}
	}
	return strings.Join(fields, " "), nil
}

func parseClasses(field string) ([]UserClass, error) {
	var classes []UserClass
	for _, part := range splitTopLevel(field, ';') {
		part = strings.TrimSpace(part)
		switch {
		case strings.EqualFold(part, "allUsers"):
			classes = append(classes, AllUsers())
		case strings.EqualFold(part, "self"):
			classes = append(classes, ThisEntry())
		case strings.EqualFold(part, "parent"):
			classes = append(classes, ParentOfEntry())
		case strings.HasPrefix(part, "dn="):
			d, err := dn.Parse(part[len("dn="):])
			if err != nil {
				return nil, fmt.Errorf("acl: bad dn= class %q: %w", part, err)
			}
			classes = append(classes, Name(d))
		case strings.HasPrefix(part, "group="):
			d, err := dn.Parse(part[len("group="):])
			if err != nil {
				return nil, fmt.Errorf("acl: bad group= class %q: %w", part, err)
			}
			classes = append(classes, UserGroup(d))
		case strings.HasPrefix(part, "subtree="):
			body := strings.TrimSpace(part[len("subtree="):])
			if strings.HasPrefix(body, "{") {
				spec, err := subentry.Parse(body)
				if err != nil {
					return nil, fmt.Errorf("acl: bad subtree= class %q: %w", part, err)
				}
				classes = append(classes, SubtreeSpec(spec))
				break
			}
			d, err := dn.Parse(body)
			if err != nil {
				return nil, fmt.Errorf("acl: bad subtree= class %q: %w", part, err)
			}
			classes = append(classes, Subtree(d))
		default:
			return nil, fmt.Errorf("acl: unknown user class %q", part)
		}
	}
	return classes, nil
}

func parseAuthLevel(s string) (AuthenticationLevel, error) {
	switch strings.ToLower(s) {
	case "none":
		return AuthNone, nil
	case "simple":
		return AuthSimple, nil
	case "strong":
		return AuthStrong, nil
	default:
		return 0, fmt.Errorf("acl: unknown authLevel %q", s)
	}
}

// splitTopLevel splits s on sep, ignoring separators inside braces,
// parentheses or quoted strings, so a braced subtree specification can
// carry its own punctuation.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '{', '(':
			if !inQuote {
				depth++
			}
		case '}', ')':
			if !inQuote {
				depth--
			}
		case sep:
			if !inQuote && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseEntryACIs parses every value of an entry's "aci" attribute,
// skipping (but not erroring on) malformed tuples: a single bad ACI
// string must not make an entire entry's access control disappear.
func ParseEntryACIs(values [][]byte) []ACI {
	var out []ACI
	for _, v := range values {
		a, err := ParseString(string(v))
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}
