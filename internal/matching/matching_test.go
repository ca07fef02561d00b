package matching

import (
	"testing"

	"github.com/oba-directory/obad/internal/schema"
)

func TestCaseIgnoreNormalizeIdempotent(t *testing.T) {
	v := "  Alice   Smith "
	n1 := Normalize(schema.MatchCaseIgnoreMatch, v)
	n2 := Normalize(schema.MatchCaseIgnoreMatch, n1)
	if n1 != n2 {
		t.Fatalf("not idempotent: %q vs %q", n1, n2)
	}
	if n1 != "alice smith" {
		t.Fatalf("got %q", n1)
	}
}

func TestCompareCaseIgnore(t *testing.T) {
	if Compare(schema.MatchCaseIgnoreMatch, "Alice", "alice") != Equal {
		t.Fatal("expected case-insensitive equality")
	}
}

func TestSubstringMatch(t *testing.T) {
	r := Lookup(schema.MatchCaseIgnoreSubstrMatch)
	if r == nil || r.Substring == nil {
		t.Fatal("expected substring matcher")
	}
	if !r.Substring("Alice Marie Smith", "Alice", "Smith", []string{"Marie"}) {
		t.Fatal("expected substring match to succeed")
	}
	if r.Substring("Alice Marie Smith", "Bob", "", nil) {
		t.Fatal("expected substring match to fail on bad anchor")
	}
}

func TestApproximateMatch(t *testing.T) {
	if !ApproximateMatch("Robert", "Rupert") {
		t.Fatal("expected soundex-equivalent names to approximate-match")
	}
	if ApproximateMatch("Robert", "Susan") {
		t.Fatal("expected dissimilar names not to approximate-match")
	}
}

func TestIntegerOrdering(t *testing.T) {
	if Compare(schema.MatchIntegerMatch, "9", "10") != Less {
		t.Fatal("expected numeric ordering, not lexicographic")
	}
}
