package filter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

func TestParseStringBasic(t *testing.T) {
	cases := map[string]Kind{
		"(cn=alice)":              KindEquality,
		"(cn=alice*)":             KindSubstring,
		"(cn=*)":                  KindPresence,
		"(&(cn=alice)(sn=Apple))": KindAnd,
		"(|(cn=alice)(cn=bob))":   KindOr,
		"(!(cn=alice))":           KindNot,
		"(cn>=alice)":             KindGreater,
		"(cn<=alice)":             KindLess,
		"(cn~=alice)":             KindApprox,
	}
	for s, want := range cases {
		f, err := ParseString(s)
		if err != nil {
			t.Fatalf("ParseString(%q): %v", s, err)
		}
		if f.Kind != want {
			t.Fatalf("ParseString(%q).Kind = %v, want %v", s, f.Kind, want)
		}
	}
}

func TestParseSubstringParts(t *testing.T) {
	f, err := ParseString("(cn=al*ic*e)")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if f.Initial != "al" || f.Final != "e" || len(f.Any) != 1 || f.Any[0] != "ic" {
		t.Fatalf("unexpected substring parse: %+v", f)
	}
}

func newSearchStore(t *testing.T) (*store.Store, *schema.Registry) {
	t.Helper()
	reg := schema.NewRegistry()
	if err := schema.LoadDefaults(reg); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	path := filepath.Join(t.TempDir(), "wal.log")
	st, err := store.Open(reg, dn.MustParse("dc=example,dc=com"), path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close(); os.Remove(path) })

	domain := map[string]*store.Attribute{
		schema.AttrObjectClass:       {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("dcObject"), []byte("organization")}},
		"0.9.2342.19200300.100.1.25": {OID: "0.9.2342.19200300.100.1.25", UserName: "dc", Values: [][]byte{[]byte("example")}},
		"2.5.4.10":                   {OID: "2.5.4.10", UserName: "o", Values: [][]byte{[]byte("Example")}},
	}
	if _, err := st.Add(dn.MustParse("dc=example,dc=com"), domain, ""); err != nil {
		t.Fatalf("Add domain: %v", err)
	}
	alice := map[string]*store.Attribute{
		schema.AttrObjectClass: {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("person")}},
		"2.5.4.3":              {OID: "2.5.4.3", UserName: "cn", Values: [][]byte{[]byte("alice")}},
		"2.5.4.4":              {OID: "2.5.4.4", UserName: "sn", Values: [][]byte{[]byte("Apple")}},
	}
	if _, err := st.Add(dn.MustParse("cn=alice,dc=example,dc=com"), alice, ""); err != nil {
		t.Fatalf("Add alice: %v", err)
	}
	return st, reg
}

// TestSearchSubtreeEquality verifies that a subtree search under the base
// for (cn=alice) returns exactly the alice entry.
func TestSearchSubtreeEquality(t *testing.T) {
	st, reg := newSearchStore(t)
	f, err := ParseString("(cn=alice)")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	cur, err := Search(context.Background(), reg, st, dn.MustParse("dc=example,dc=com"), ScopeSubtree, f, DerefNever, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if cur.Len() != 1 {
		t.Fatalf("expected 1 result, got %d", cur.Len())
	}
	e := cur.Next()
	if e.NormDN.Render(dn.StyleNormalized) != "cn=alice,dc=example,dc=com" {
		t.Fatalf("unexpected result DN: %s", e.NormDN.String())
	}
}

func TestSearchSizeLimit(t *testing.T) {
	st, reg := newSearchStore(t)
	f := Presence("objectClass")
	_, err := Search(context.Background(), reg, st, dn.MustParse("dc=example,dc=com"), ScopeSubtree, f, DerefNever, 1)
	if err == nil {
		t.Fatalf("expected SizeLimitExceeded")
	}
}
