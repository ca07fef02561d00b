package subentry

import (
	"testing"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	if err := schema.LoadDefaults(reg); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	return reg
}

func testEntry(t *testing.T, dnStr string, ocs ...string) *store.Entry {
	t.Helper()
	d := dn.MustParse(dnStr)
	e := store.NewEntry(1, d, d)
	vals := make([][]byte, len(ocs))
	for i, oc := range ocs {
		vals[i] = []byte(oc)
	}
	e.SetAttribute(schema.AttrObjectClass, "objectClass", vals, false)
	return e
}

func TestParseEmptySpecification(t *testing.T) {
	spec, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.MinDepth != 0 || spec.MaxDepth != -1 || !spec.Base.IsRoot() {
		t.Fatalf("empty spec should cover the whole subtree, got %+v", spec)
	}
}

func TestParseClauses(t *testing.T) {
	spec, err := Parse(`{ base "ou=people", minimum 1, maximum 3, specificExclusions {chopBefore:"ou=temp"}, specificationFilter (objectClass=person) }`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Base.String() != "ou=people" {
		t.Errorf("base = %q", spec.Base.String())
	}
	if spec.MinDepth != 1 || spec.MaxDepth != 3 {
		t.Errorf("depth range = [%d, %d], want [1, 3]", spec.MinDepth, spec.MaxDepth)
	}
	if len(spec.Exclusions) != 1 || spec.Exclusions[0].String() != "ou=temp" {
		t.Errorf("exclusions = %v", spec.Exclusions)
	}
	if spec.Refinement == nil {
		t.Error("expected a refinement filter")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`base "ou=people"`, // missing braces
		`{ bogusClause 7 }`,
		`{ minimum one }`,
	} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) should fail", raw)
		}
	}
}

func TestCoversDepthAndBase(t *testing.T) {
	reg := testRegistry(t)
	adminPoint := dn.MustParse("dc=example,dc=com")

	spec, err := Parse(`{ base "ou=people" }`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	in := testEntry(t, "cn=alice,ou=people,dc=example,dc=com", "top", "person")
	out := testEntry(t, "cn=bob,ou=machines,dc=example,dc=com", "top", "person")

	if !spec.Covers(reg, adminPoint, in, nil) {
		t.Error("entry under the base should be covered")
	}
	if spec.Covers(reg, adminPoint, out, nil) {
		t.Error("entry outside the base must not be covered")
	}
}

func TestCoversRespectsDepthBounds(t *testing.T) {
	reg := testRegistry(t)
	adminPoint := dn.MustParse("dc=example,dc=com")

	spec, err := Parse(`{ minimum 2, maximum 2 }`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tooShallow := testEntry(t, "ou=people,dc=example,dc=com", "top", "organizationalUnit")
	exact := testEntry(t, "cn=alice,ou=people,dc=example,dc=com", "top", "person")
	tooDeep := testEntry(t, "cn=x,cn=alice,ou=people,dc=example,dc=com", "top", "person")

	if spec.Covers(reg, adminPoint, tooShallow, nil) {
		t.Error("depth 1 entry covered despite minimum 2")
	}
	if !spec.Covers(reg, adminPoint, exact, nil) {
		t.Error("depth 2 entry should be covered")
	}
	if spec.Covers(reg, adminPoint, tooDeep, nil) {
		t.Error("depth 3 entry covered despite maximum 2")
	}
}

func TestCoversExclusionsAndRefinement(t *testing.T) {
	reg := testRegistry(t)
	adminPoint := dn.MustParse("dc=example,dc=com")

	spec, err := Parse(`{ specificExclusions {chopBefore:"ou=temp"}, specificationFilter (objectClass=person) }`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	excluded := testEntry(t, "cn=tmp,ou=temp,dc=example,dc=com", "top", "person")
	wrongClass := testEntry(t, "ou=lab,dc=example,dc=com", "top", "organizationalUnit")
	covered := testEntry(t, "cn=alice,ou=people,dc=example,dc=com", "top", "person")

	if spec.Covers(reg, adminPoint, excluded, nil) {
		t.Error("entry under a specific exclusion covered")
	}
	if spec.Covers(reg, adminPoint, wrongClass, nil) {
		t.Error("entry failing the refinement filter covered")
	}
	if !spec.Covers(reg, adminPoint, covered, nil) {
		t.Error("matching entry not covered")
	}
}

func TestIsSubentry(t *testing.T) {
	sub := testEntry(t, "cn=policy,dc=example,dc=com", "top", "subentry", "collectiveAttributeSubentry")
	plain := testEntry(t, "cn=alice,dc=example,dc=com", "top", "person")
	if !IsSubentry(sub) {
		t.Error("subentry not detected")
	}
	if IsSubentry(plain) {
		t.Error("ordinary entry detected as subentry")
	}
}

func TestCollectiveValuesAndMerge(t *testing.T) {
	reg := testRegistry(t)

	sub := testEntry(t, "cn=policy,dc=example,dc=com", "top", "subentry", "collectiveAttributeSubentry")
	sub.SetAttribute("2.5.4.3", "cn", [][]byte{[]byte("policy")}, false)
	sub.SetAttribute("2.5.4.7.1", "c-l", [][]byte{[]byte("Istanbul")}, false)
	sub.SetAttribute(schema.AttrSubtreeSpec, "subtreeSpecification", [][]byte{[]byte("{}")}, true)

	collective := CollectiveValues(reg, sub)
	if len(collective) != 1 {
		t.Fatalf("collective = %v, want only c-l", collective)
	}
	if _, ok := collective["2.5.4.7.1"]; !ok {
		t.Fatalf("c-l missing from collective set: %v", collective)
	}

	target := testEntry(t, "cn=alice,ou=people,dc=example,dc=com", "top", "person")
	MergeInto(target, collective)
	if got := target.Values("2.5.4.7.1"); len(got) != 1 || string(got[0]) != "Istanbul" {
		t.Fatalf("c-l after merge = %q", got)
	}

	// An explicit value on the entry wins over the collective one.
	own := testEntry(t, "cn=bob,ou=people,dc=example,dc=com", "top", "person")
	own.SetAttribute("2.5.4.7.1", "c-l", [][]byte{[]byte("Ankara")}, false)
	MergeInto(own, collective)
	if got := own.Values("2.5.4.7.1"); len(got) != 1 || string(got[0]) != "Ankara" {
		t.Fatalf("explicit c-l overridden: %q", got)
	}
}
