package dn

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Attribute is one LDIF/entry attribute: a type plus its (possibly
// multi-valued) values, values kept as bytes since LDIF values may be
// arbitrary octets.
type Attribute struct {
	Type   string
	Values [][]byte
}

// Entry is the LDIF representation of a directory entry: a DN plus its
// attributes in insertion order (order is preserved for round-tripping,
// though the directory model itself treats attribute sets as unordered).
type Entry struct {
	DN         string
	Attributes []Attribute
}

func (e *Entry) Get(attrType string) [][]byte {
	for _, a := range e.Attributes {
		if strings.EqualFold(a.Type, attrType) {
			return a.Values
		}
	}
	return nil
}

// ModOp is the kind of a single LDIF/Modify primitive operation.
type ModOp int

const (
	ModAdd ModOp = iota
	ModDelete
	ModReplace
)

func (m ModOp) String() string {
	switch m {
	case ModAdd:
		return "add"
	case ModDelete:
		return "delete"
	case ModReplace:
		return "replace"
	}
	return "unknown"
}

// Modification is one primitive modify operation against a single
// attribute type.
type Modification struct {
	Op     ModOp
	Type   string
	Values [][]byte
}

// ChangeType distinguishes the LDIF change record kinds (RFC 2849); the
// modrdn and moddn changetypes share one kind.
type ChangeType int

const (
	ChangeAdd ChangeType = iota
	ChangeDelete
	ChangeModify
	ChangeModDN // covers both modrdn and moddn
)

// ChangeRecord is a single parsed LDIF change record.
type ChangeRecord struct {
	DN   string
	Type ChangeType

	// ChangeAdd
	AddAttributes []Attribute

	// ChangeModify
	Modifications []Modification

	// ChangeModDN
	NewRDN       string
	DeleteOldRDN bool
	NewSuperior  string // empty if not present

	// PreImage is filled in by callers that want Reverse() to work; it is
	// not part of the wire LDIF format itself.
	PreImage *Entry
}

// ParseLDIF parses one or more blank-line-separated LDIF records (entries
// or change records) from an LDIF document.
func ParseLDIF(data []byte) ([]ChangeRecord, error) {
	blocks, err := splitBlocks(data)
	if err != nil {
		return nil, err
	}
	var records []ChangeRecord
	for _, lines := range blocks {
		if len(lines) == 0 {
			continue
		}
		rec, err := parseBlock(lines)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// splitBlocks un-folds continuation lines (RFC 2849: a line starting with a
// single space is a continuation of the previous line) and groups the
// result into blank-line-separated record blocks.
func splitBlocks(data []byte) ([][]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var blocks [][]string
	var cur []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		if strings.HasPrefix(line, " ") && len(cur) > 0 {
			cur[len(cur)-1] += line[1:]
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue // comment line
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks, scanner.Err()
}

func parseBlock(lines []string) (ChangeRecord, error) {
	var rec ChangeRecord
	rec.Type = ChangeAdd // default for a bare entry block without changetype
	isEntryBlock := true
	var attrs []Attribute
	var mods []Modification
	var curMod *Modification

	for _, line := range lines {
		// A bare "-" line ends a modification in a modify record.
		name, val, err := "-", []byte(nil), error(nil)
		if line != "-" || isEntryBlock || rec.Type != ChangeModify {
			name, val, err = parseLDIFLine(line)
		}
		if err != nil {
			return ChangeRecord{}, err
		}
		switch strings.ToLower(name) {
		case "dn":
			rec.DN = string(val)
			continue
		case "changetype":
			isEntryBlock = false
			switch string(val) {
			case "add":
				rec.Type = ChangeAdd
			case "delete":
				rec.Type = ChangeDelete
			case "modify":
				rec.Type = ChangeModify
			case "modrdn", "moddn":
				rec.Type = ChangeModDN
			default:
				return ChangeRecord{}, fmt.Errorf("ldif: unknown changetype %q", val)
			}
			continue
		}
		if !isEntryBlock {
			switch rec.Type {
			case ChangeModify:
				switch strings.ToLower(name) {
				case "add", "delete", "replace":
					if curMod != nil {
						mods = append(mods, *curMod)
					}
					op := ModAdd
					switch strings.ToLower(name) {
					case "delete":
						op = ModDelete
					case "replace":
						op = ModReplace
					}
					curMod = &Modification{Op: op, Type: string(val)}
					continue
				case "-":
					if curMod != nil {
						mods = append(mods, *curMod)
						curMod = nil
					}
					continue
				default:
					if curMod != nil {
						curMod.Values = append(curMod.Values, val)
					}
					continue
				}
			case ChangeModDN:
				switch strings.ToLower(name) {
				case "newrdn":
					rec.NewRDN = string(val)
				case "deleteoldrdn":
					rec.DeleteOldRDN = string(val) == "1" || strings.EqualFold(string(val), "true")
				case "newsuperior":
					rec.NewSuperior = string(val)
				}
				continue
			case ChangeDelete:
				continue
			}
		}
		attrs = append(attrs, Attribute{Type: name, Values: [][]byte{val}})
	}
	if curMod != nil {
		mods = append(mods, *curMod)
	}
	mergedAttrs := mergeAttributes(attrs)
	rec.AddAttributes = mergedAttrs
	rec.Modifications = mods
	return rec, nil
}

func mergeAttributes(attrs []Attribute) []Attribute {
	var out []Attribute
	index := map[string]int{}
	for _, a := range attrs {
		key := strings.ToLower(a.Type)
		if i, ok := index[key]; ok {
			out[i].Values = append(out[i].Values, a.Values...)
			continue
		}
		index[key] = len(out)
		out = append(out, Attribute{Type: a.Type, Values: append([][]byte(nil), a.Values...)})
	}
	return out
}

// parseLDIFLine parses one `name: value`, `name:: base64` or `name:< url`
// line, returning the attribute name and the decoded value bytes.
func parseLDIFLine(line string) (name string, value []byte, err error) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", nil, fmt.Errorf("ldif: malformed line %q", line)
	}
	name = line[:idx]
	rest := line[idx+1:]
	switch {
	case strings.HasPrefix(rest, ":"):
		rest = strings.TrimSpace(rest[1:])
		decoded, derr := base64.StdEncoding.DecodeString(rest)
		if derr != nil {
			return "", nil, fmt.Errorf("ldif: bad base64 for %q: %w", name, derr)
		}
		return name, decoded, nil
	case strings.HasPrefix(rest, "<"):
		// URL-valued attribute; the core treats the URL reference itself
		// as the opaque value (dereferencing a file:// or other URL is an
		// external, transport-layer concern).
		return name, []byte(strings.TrimSpace(rest[1:])), nil
	default:
		return name, []byte(strings.TrimPrefix(rest, " ")), nil
	}
}

// IsSafeString reports whether v may be emitted in raw LDIF form: non-empty,
// does not begin with NUL/LF/CR/SPACE/':'/'<', contains no NUL/LF/CR,
// every byte forms valid UTF-8, and does not end with a space.
func IsSafeString(v []byte) bool {
	if len(v) == 0 {
		return false
	}
	switch v[0] {
	case 0, '\n', '\r', ' ', ':', '<':
		return false
	}
	if v[len(v)-1] == ' ' {
		return false
	}
	for _, b := range v {
		if b == 0 || b == '\n' || b == '\r' {
			return false
		}
	}
	if !utf8.Valid(v) {
		return false
	}
	return true
}

// RenderEntry renders an Entry as an LDIF block (without changetype),
// folding lines at lineWidth bytes (default 76 when lineWidth <= 0).
func RenderEntry(e *Entry, lineWidth int) []byte {
	if lineWidth <= 0 {
		lineWidth = 76
	}
	var buf bytes.Buffer
	writeLDIFLine(&buf, "dn", []byte(e.DN), lineWidth)
	for _, a := range e.Attributes {
		for _, v := range a.Values {
			writeLDIFLine(&buf, a.Type, v, lineWidth)
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// RenderChangeRecord renders a ChangeRecord in LDIF change-record form.
func RenderChangeRecord(c *ChangeRecord, lineWidth int) []byte {
	if lineWidth <= 0 {
		lineWidth = 76
	}
	var buf bytes.Buffer
	writeLDIFLine(&buf, "dn", []byte(c.DN), lineWidth)
	switch c.Type {
	case ChangeAdd:
		writeLDIFLine(&buf, "changetype", []byte("add"), lineWidth)
		for _, a := range c.AddAttributes {
			for _, v := range a.Values {
				writeLDIFLine(&buf, a.Type, v, lineWidth)
			}
		}
	case ChangeDelete:
		writeLDIFLine(&buf, "changetype", []byte("delete"), lineWidth)
	case ChangeModify:
		writeLDIFLine(&buf, "changetype", []byte("modify"), lineWidth)
		for _, m := range c.Modifications {
			writeLDIFLine(&buf, m.Op.String(), []byte(m.Type), lineWidth)
			for _, v := range m.Values {
				writeLDIFLine(&buf, m.Type, v, lineWidth)
			}
			buf.WriteString("-\n")
		}
	case ChangeModDN:
		writeLDIFLine(&buf, "changetype", []byte("modrdn"), lineWidth)
		writeLDIFLine(&buf, "newrdn", []byte(c.NewRDN), lineWidth)
		flag := "0"
		if c.DeleteOldRDN {
			flag = "1"
		}
		writeLDIFLine(&buf, "deleteoldrdn", []byte(flag), lineWidth)
		if c.NewSuperior != "" {
			writeLDIFLine(&buf, "newsuperior", []byte(c.NewSuperior), lineWidth)
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

func writeLDIFLine(buf *bytes.Buffer, name string, value []byte, lineWidth int) {
	var line string
	if IsSafeString(value) {
		line = name + ": " + string(value)
	} else {
		line = name + ":: " + base64.StdEncoding.EncodeToString(value)
	}
	foldLine(buf, line, lineWidth)
}

// foldLine writes line to buf, inserting "\n " continuations every
// lineWidth bytes.
func foldLine(buf *bytes.Buffer, line string, lineWidth int) {
	if lineWidth <= 1 || len(line) <= lineWidth {
		buf.WriteString(line)
		buf.WriteByte('\n')
		return
	}
	buf.WriteString(line[:lineWidth])
	buf.WriteByte('\n')
	rest := line[lineWidth:]
	for len(rest) > 0 {
		n := lineWidth - 1
		if n > len(rest) {
			n = len(rest)
		}
		buf.WriteByte(' ')
		buf.WriteString(rest[:n])
		buf.WriteByte('\n')
		rest = rest[n:]
	}
}

// Reverse computes the change record that undoes c, given the pre-image
// entry it was applied against. Applying a change record's reverse to the
// post-image entry always restores the pre-image.
func Reverse(c *ChangeRecord, pre *Entry) (*ChangeRecord, error) {
	switch c.Type {
	case ChangeAdd:
		return &ChangeRecord{DN: c.DN, Type: ChangeDelete}, nil
	case ChangeDelete:
		if pre == nil {
			return nil, fmt.Errorf("ldif: Reverse(delete) requires pre-image")
		}
		return &ChangeRecord{DN: c.DN, Type: ChangeAdd, AddAttributes: pre.Attributes}, nil
	case ChangeModify:
		if pre == nil {
			return nil, fmt.Errorf("ldif: Reverse(modify) requires pre-image")
		}
		return reverseModify(c, pre)
	case ChangeModDN:
		return reverseModDN(c, pre)
	}
	return nil, fmt.Errorf("ldif: unknown change type %d", c.Type)
}

// reverseModify computes the inverse modification list. Each primitive op's
// inverse is computed against pre, the entry as it stood before any of c's
// modifications were applied, not against the intermediate state produced
// by replaying c's earlier ops: a REPLACE's inverse restores the attribute
// to exactly what pre held, and a whole-attribute DELETE's inverse adds
// back exactly what pre held, regardless of what other modifications in
// the same batch did to that attribute first. The inverses are then
// emitted in reverse order, so re-applying them as a batch undoes c's
// effect and lands back on pre.
func reverseModify(c *ChangeRecord, pre *Entry) (*ChangeRecord, error) {
	preValues := map[string][][]byte{}
	typeCase := map[string]string{}
	for _, a := range pre.Attributes {
		key := strings.ToLower(a.Type)
		preValues[key] = append([][]byte(nil), a.Values...)
		typeCase[key] = a.Type
	}
	for _, m := range c.Modifications {
		typeCase[strings.ToLower(m.Type)] = m.Type
	}

	var inverses []Modification
	for _, m := range c.Modifications {
		key := strings.ToLower(m.Type)
		before := preValues[key]
		switch m.Op {
		case ModAdd:
			inverses = append(inverses, Modification{Op: ModDelete, Type: m.Type, Values: m.Values})
		case ModDelete:
			if len(m.Values) == 0 {
				// DELETE(attr-with-no-values) removes the whole attribute;
				// its reverse is ADD of the full pre-image of that attribute.
				inverses = append(inverses, Modification{Op: ModAdd, Type: m.Type, Values: before})
			} else {
				inverses = append(inverses, Modification{Op: ModAdd, Type: m.Type, Values: m.Values})
			}
		case ModReplace:
			if len(before) == 0 {
				inverses = append(inverses, Modification{Op: ModDelete, Type: m.Type})
			} else {
				inverses = append(inverses, Modification{Op: ModReplace, Type: m.Type, Values: before})
			}
		}
	}
	// Reverse order so undo-ing replays like a stack.
	out := make([]Modification, len(inverses))
	for i, m := range inverses {
		out[len(inverses)-1-i] = m
	}
	return &ChangeRecord{DN: c.DN, Type: ChangeModify, Modifications: out}, nil
}

// reverseModDN computes the reverse ModifyDN: the target DN becomes the
// subject, new_rdn becomes the leaf RDN of the original DN (c.DN), and
// delete_old_rdn is true iff the new RDN's value(s) were not present among
// pre's attribute values for that type (the forward op added them, so the
// reverse removes them again). A nil pre yields delete_old_rdn true.
func reverseModDN(c *ChangeRecord, pre *Entry) (*ChangeRecord, error) {
	oldDN, err := Parse(c.DN)
	if err != nil {
		return nil, err
	}
	oldRDN := oldDN.RDN()
	newRDN, err := parseRDN(c.NewRDN)
	if err != nil {
		return nil, err
	}

	newDN := oldDN.Parent().Child(newRDN)
	if c.NewSuperior != "" {
		sup, err := Parse(c.NewSuperior)
		if err != nil {
			return nil, err
		}
		newDN = sup.Child(newRDN)
	}

	deleteOld := true
	if pre != nil {
		for _, atv := range newRDN.ATVs {
			for _, v := range pre.Get(atv.Type) {
				if string(v) == atv.Value {
					deleteOld = false
				}
			}
		}
	}

	rc := &ChangeRecord{
		DN:           newDN.String(),
		Type:         ChangeModDN,
		NewRDN:       oldRDN.String(),
		DeleteOldRDN: deleteOld,
	}
	if c.NewSuperior != "" {
		rc.NewSuperior = oldDN.Parent().String()
	}
	return rc, nil
}

// sortAttributes returns a copy of attrs ordered by type, a deterministic
// attribute order for comparing round-tripped entries.
func sortAttributes(attrs []Attribute) []Attribute {
	out := append([]Attribute(nil), attrs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
