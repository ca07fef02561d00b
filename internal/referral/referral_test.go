package referral

import (
	"testing"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

func refEntry(t *testing.T, dnStr string, urls ...string) *store.Entry {
	t.Helper()
	d := dn.MustParse(dnStr)
	e := store.NewEntry(1, d, d)
	e.SetAttribute(schema.AttrObjectClass, "objectClass", [][]byte{[]byte("top"), []byte("Referral")}, false)
	if len(urls) > 0 {
		vals := make([][]byte, len(urls))
		for i, u := range urls {
			vals[i] = []byte(u)
		}
		e.SetAttribute(refAttr, "ref", vals, false)
	}
	return e
}

func TestIsReferral(t *testing.T) {
	e := refEntry(t, "ou=remote,dc=example,dc=com", "ldap://other.example.com/ou=remote,dc=example,dc=com")
	if !IsReferral(e) {
		t.Error("referral entry not detected (objectClass match must be case-insensitive)")
	}

	d := dn.MustParse("cn=alice,dc=example,dc=com")
	plain := store.NewEntry(2, d, d)
	plain.SetAttribute(schema.AttrObjectClass, "objectClass", [][]byte{[]byte("top"), []byte("person")}, false)
	if IsReferral(plain) {
		t.Error("ordinary entry detected as referral")
	}
}

func TestURLs(t *testing.T) {
	e := refEntry(t, "ou=remote,dc=example,dc=com",
		"ldap://a.example.com/ou=remote,dc=example,dc=com",
		"ldap://b.example.com/ou=remote,dc=example,dc=com",
	)
	urls := URLs(e)
	if len(urls) != 2 {
		t.Fatalf("URLs = %v", urls)
	}
	if urls[0] != "ldap://a.example.com/ou=remote,dc=example,dc=com" {
		t.Errorf("urls[0] = %q", urls[0])
	}

	d := dn.MustParse("cn=alice,dc=example,dc=com")
	plain := store.NewEntry(2, d, d)
	plain.SetAttribute(schema.AttrObjectClass, "objectClass", [][]byte{[]byte("top"), []byte("person")}, false)
	if got := URLs(plain); got != nil {
		t.Errorf("URLs of a non-referral = %v, want nil", got)
	}
}
