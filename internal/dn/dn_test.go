package dn

import "testing"

func TestParseAndRender(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"cn=alice,dc=example,dc=com", "cn=alice,dc=example,dc=com"},
		{"cn=Alice\\, Smith,dc=example,dc=com", "cn=Alice\\, Smith,dc=example,dc=com"},
		{"", ""},
	}
	for _, c := range cases {
		d, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got := d.Render(StyleUser); got != c.want {
			t.Errorf("Parse(%q).Render = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	d := MustParse("CN=Alice,DC=Example,DC=COM")
	n1 := d.Normalize(nil)
	n2 := n1.Normalize(nil)
	if n1.Render(StyleNormalized) != n2.Render(StyleNormalized) {
		t.Fatalf("normalize not idempotent: %q vs %q", n1, n2)
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	d := MustParse("cn=alice,dc=example,dc=com")
	reparsed, err := Parse(d.Render(StyleNormalized))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(reparsed, nil) {
		t.Fatalf("round trip mismatch: %v vs %v", d, reparsed)
	}
}

func TestAncestorAndSuffix(t *testing.T) {
	base := MustParse("dc=example,dc=com")
	child := MustParse("cn=alice,dc=example,dc=com")
	if !base.AncestorOf(child, nil) {
		t.Fatalf("expected %v to be ancestor of %v", base, child)
	}
	suffix := child.Suffix(2)
	if !suffix.Equal(base, nil) {
		t.Fatalf("suffix(2) = %v, want %v", suffix, base)
	}
}

func TestMultiValuedRDN(t *testing.T) {
	d, err := Parse("cn=alice+uid=aalice,dc=example,dc=com")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.RDN().ATVs) != 2 {
		t.Fatalf("expected 2 ATVs in leaf RDN, got %d", len(d.RDN().ATVs))
	}
}

func TestBinaryRDNValue(t *testing.T) {
	d, err := Parse(`cn=#48656c6c6f,dc=example,dc=com`)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := d.RDN().HasAttribute("cn")
	if !ok || v != "Hello" {
		t.Fatalf("binary RDN decode = %q, %v", v, ok)
	}
}

func TestInvalidDN(t *testing.T) {
	if _, err := Parse("=novalue,dc=example,dc=com"); err == nil {
		t.Fatal("expected error for empty attribute type")
	}
}
