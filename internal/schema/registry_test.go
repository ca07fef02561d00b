package schema

import "testing"

func newLoadedRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := LoadDefaults(r); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestLookupCaseInsensitive(t *testing.T) {
	r := newLoadedRegistry(t)
	at, err := r.LookupAttributeType("CN")
	if err != nil {
		t.Fatal(err)
	}
	if at.OID != "2.5.4.3" {
		t.Fatalf("got OID %s", at.OID)
	}
	byOID, err := r.LookupAttributeType("2.5.4.3")
	if err != nil || byOID != at {
		t.Fatalf("lookup by OID mismatch")
	}
}

func TestDuplicateOIDRejected(t *testing.T) {
	r := newLoadedRegistry(t)
	err := r.RegisterAttributeType(&AttributeType{OID: "2.5.4.3", Names: []string{"dup"}})
	if _, ok := err.(*ErrAlreadyRegistered); !ok {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestCheckRefsClean(t *testing.T) {
	r := newLoadedRegistry(t)
	if errs := r.CheckRefs(); len(errs) != 0 {
		t.Fatalf("unexpected referential errors: %v", errs)
	}
}

func TestCheckRefsDanglingMust(t *testing.T) {
	r := newLoadedRegistry(t)
	r.RegisterObjectClass(&ObjectClass{
		OID: "1.2.3.4.5", Names: []string{"broken"}, Kind: KindStructural,
		Superiors: []string{"top"}, Must: []string{"doesNotExist"},
	})
	errs := r.CheckRefs()
	if len(errs) == 0 {
		t.Fatal("expected dangling MUST to be reported")
	}
}

func TestParseObjectClassDescription(t *testing.T) {
	oc, err := ParseObjectClassDescription(
		`( 9.9.9.1 NAME 'widget' SUP top STRUCTURAL MUST ( cn $ sn ) MAY description )`, false)
	if err != nil {
		t.Fatal(err)
	}
	if oc.Name() != "widget" || oc.Kind != KindStructural {
		t.Fatalf("parsed = %+v", oc)
	}
	if len(oc.Must) != 2 {
		t.Fatalf("expected 2 MUST attrs, got %v", oc.Must)
	}
}

func TestParseAttributeTypeDescription(t *testing.T) {
	at, err := ParseAttributeTypeDescription(
		`( 9.9.9.2 NAME 'widgetId' EQUALITY caseIgnoreMatch SYNTAX 1.3.6.1.4.1.1466.115.121.1.15 SINGLE-VALUE )`, false)
	if err != nil {
		t.Fatal(err)
	}
	if !at.SingleValue || at.Equality != "caseIgnoreMatch" {
		t.Fatalf("parsed = %+v", at)
	}
}

func TestNonQuirksModeRejectsNonNumericOID(t *testing.T) {
	_, err := ParseObjectClassDescription(`( widget NAME 'widget' STRUCTURAL )`, false)
	if err == nil {
		t.Fatal("expected rejection of non-numeric OID outside quirks mode")
	}
	oc, err := ParseObjectClassDescription(`( widget NAME 'widget' STRUCTURAL )`, true)
	if err != nil {
		t.Fatalf("quirks mode should accept non-numeric OID: %v", err)
	}
	if oc.OID != "widget" {
		t.Fatalf("got %+v", oc)
	}
}

type fakeEntry struct {
	attrs map[string]bool
	ocs   []string
}

func (f fakeEntry) HasAttribute(t string) bool { return f.attrs[fold(t)] }
func (f fakeEntry) ObjectClasses() []string     { return f.ocs }

func TestValidateEntryMissingMust(t *testing.T) {
	r := newLoadedRegistry(t)
	e := fakeEntry{attrs: map[string]bool{"objectclass": true}, ocs: []string{"person"}}
	errs := r.ValidateEntry(e)
	found := false
	for _, err := range errs {
		if err.Code == "OBJECT_CLASS_VIOLATION" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing MUST attribute errors, got %v", errs)
	}
}

func TestValidateEntryStructuralRemoved(t *testing.T) {
	r := newLoadedRegistry(t)
	e := fakeEntry{attrs: map[string]bool{"objectclass": true}, ocs: []string{"top"}}
	errs := r.ValidateEntry(e)
	found := false
	for _, err := range errs {
		if err.Code == "OBJECT_CLASS_MODS_PROHIBITED" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected OBJECT_CLASS_MODS_PROHIBITED, got %v", errs)
	}
}
