// Package referral implements referral handling: detecting an entry whose
// objectClass is "referral" and reading the one or more URLs in its ref
// attribute. The ManageDsaIT decision is made by internal/interceptor's
// Referral stage, not here.
package referral

import "github.com/oba-directory/obad/internal/store"

const (
	objectClassAttr = "2.5.4.0"
	refAttr         = "2.16.840.1.113730.3.1.34"
)

// IsReferral reports whether e is a referral entry.
func IsReferral(e *store.Entry) bool {
	for _, oc := range e.ObjectClasses() {
		if equalFold(oc, "referral") {
			return true
		}
	}
	return false
}

// URLs returns e's ref attribute values as strings, or nil if e is not a
// referral entry.
func URLs(e *store.Entry) []string {
	if !IsReferral(e) {
		return nil
	}
	vals := e.Values(refAttr)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
