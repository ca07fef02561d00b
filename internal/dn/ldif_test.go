package dn

import (
	"bytes"
	"testing"
)

func TestLDIFRoundTripEntry(t *testing.T) {
	e := &Entry{
		DN: "cn=alice,dc=example,dc=com",
		Attributes: []Attribute{
			{Type: "cn", Values: [][]byte{[]byte("alice")}},
			{Type: "sn", Values: [][]byte{[]byte("Apple")}},
		},
	}
	out := RenderEntry(e, 76)
	recs, err := ParseLDIF(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].DN != e.DN {
		t.Fatalf("DN mismatch: %q vs %q", recs[0].DN, e.DN)
	}
}

func TestLDIFSafetyBase64Fallback(t *testing.T) {
	unsafe := []byte(" leading space")
	if IsSafeString(unsafe) {
		t.Fatal("leading-space value should not be safe")
	}
	var buf bytes.Buffer
	writeLDIFLine(&buf, "description", unsafe, 76)
	if !bytes.Contains(buf.Bytes(), []byte("description:: ")) {
		t.Fatalf("expected base64 fallback, got %q", buf.String())
	}
}

func TestLineFolding(t *testing.T) {
	var buf bytes.Buffer
	long := []byte("this-is-a-very-long-safe-value-that-should-definitely-wrap-across-more-than-one-output-line")
	writeLDIFLine(&buf, "description", long, 20)
	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	if len(lines) < 2 {
		t.Fatalf("expected folded output, got %d lines", len(lines))
	}
	for _, l := range lines[1:] {
		if l[0] != ' ' {
			t.Fatalf("continuation line missing leading space: %q", l)
		}
	}
}

func TestReverseAddIsDelete(t *testing.T) {
	c := &ChangeRecord{DN: "cn=x,dc=example,dc=com", Type: ChangeAdd}
	r, err := Reverse(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Type != ChangeDelete || r.DN != c.DN {
		t.Fatalf("unexpected reverse: %+v", r)
	}
}

func TestReverseModifyUsesPreImageNotIntermediateState(t *testing.T) {
	pre := &Entry{
		DN: "ou=x,dc=example,dc=com",
		Attributes: []Attribute{
			{Type: "ou", Values: [][]byte{[]byte("apache"), []byte("acme")}},
		},
	}
	c := &ChangeRecord{
		DN:   pre.DN,
		Type: ChangeModify,
		Modifications: []Modification{
			{Op: ModAdd, Type: "ou", Values: [][]byte{[]byte("Big")}},
			{Op: ModDelete, Type: "l"},
			{Op: ModAdd, Type: "l", Values: [][]byte{[]byte("FR")}},
			{Op: ModReplace, Type: "l", Values: [][]byte{[]byte("USA")}},
			{Op: ModReplace, Type: "ou", Values: [][]byte{[]byte("apache")}},
		},
	}
	r, err := Reverse(c, pre)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Modifications) != 5 {
		t.Fatalf("expected 5 inverse modifications, got %d: %+v", len(r.Modifications), r.Modifications)
	}
	// The REPLACE ou=apache is undone by restoring ou to exactly what pre
	// held (apache, acme), not to the batch's intermediate value for ou
	// (apache, acme, Big) after the earlier ADD Big in the same batch.
	want := []ModOp{ModReplace, ModDelete, ModDelete, ModAdd, ModDelete}
	for i, m := range r.Modifications {
		if m.Op != want[i] {
			t.Errorf("mod[%d].Op = %v, want %v", i, m.Op, want[i])
		}
	}
	gotOu := valuesAsStrings(r.Modifications[0].Values)
	wantOu := []string{"apache", "acme"}
	if !equalStringSlices(gotOu, wantOu) {
		t.Errorf("mod[0] Values = %v, want %v (the pre-image of ou, not the intermediate apache/acme/Big)", gotOu, wantOu)
	}
	// l never appeared in pre, so its whole-attribute deletes restore nothing.
	if len(r.Modifications[1].Values) != 0 {
		t.Errorf("mod[1] (undo REPLACE l=USA) Values = %v, want empty: l had no pre-image", r.Modifications[1].Values)
	}
	gotFR := valuesAsStrings(r.Modifications[2].Values)
	if !equalStringSlices(gotFR, []string{"FR"}) {
		t.Errorf("mod[2] (undo ADD l=FR) Values = %v, want [FR]", gotFR)
	}
	if len(r.Modifications[3].Values) != 0 {
		t.Errorf("mod[3] (undo DELETE l) Values = %v, want empty: l had no pre-image", r.Modifications[3].Values)
	}
	gotBig := valuesAsStrings(r.Modifications[4].Values)
	if !equalStringSlices(gotBig, []string{"Big"}) {
		t.Errorf("mod[4] (undo ADD ou=Big) Values = %v, want [Big]", gotBig)
	}
}

func valuesAsStrings(vs [][]byte) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReverseModDN(t *testing.T) {
	c := &ChangeRecord{
		DN:           "cn=john doe,dc=example,dc=com",
		Type:         ChangeModDN,
		NewRDN:       "cn=jack doe",
		DeleteOldRDN: true,
	}
	pre := &Entry{
		DN: c.DN,
		Attributes: []Attribute{
			{Type: "cn", Values: [][]byte{[]byte("john doe")}},
		},
	}
	r, err := Reverse(c, pre)
	if err != nil {
		t.Fatal(err)
	}
	if r.DN != "cn=jack doe,dc=example,dc=com" {
		t.Fatalf("reverse DN = %q", r.DN)
	}
	if r.NewRDN != "cn=john doe" || !r.DeleteOldRDN {
		t.Fatalf("reverse modrdn = %+v", r)
	}
}
