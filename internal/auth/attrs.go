package auth

import (
	"time"

	"github.com/oba-directory/obad/internal/obalog"
)

// Operational attribute OIDs the password-policy state machine reads and
// writes, mirrored from the RFC 2307-ish pwd* definitions registered in
// internal/schema/defaults.go (they have no exported Go constants there).
const (
	AttrUserPassword         = "2.5.4.35"
	AttrPwdChangedTime       = "2.5.4.52"
	AttrPwdHistory           = "1.3.6.1.4.1.42.2.27.8.1.16"
	AttrPwdFailureTime       = "1.3.6.1.4.1.42.2.27.8.1.19"
	AttrPwdAccountLockedTime = "1.3.6.1.4.1.42.2.27.8.1.17"
	AttrPwdLastSuccess       = "1.3.6.1.4.1.42.2.27.8.1.26"
	AttrPwdGraceUseTime      = "1.3.6.1.4.1.42.2.27.8.1.21"
	AttrPwdReset             = "1.3.6.1.4.1.42.2.27.8.1.20"
)

// generalizedTimeLayout is RFC 4517's GeneralizedTime syntax, UTC form.
const generalizedTimeLayout = "20060102150405Z"

// EncodeTime renders t as a GeneralizedTime value for storage.
func EncodeTime(t time.Time) []byte {
	return []byte(t.UTC().Format(generalizedTimeLayout))
}

// DecodeTime parses a GeneralizedTime value, returning the zero Time on
// malformed input rather than an error: a single corrupt pwdFailureTime
// value must not make an entire policy evaluation fail.
func DecodeTime(v []byte) time.Time {
	t, err := time.Parse(generalizedTimeLayout, string(v))
	if err != nil {
		return time.Time{}
	}
	return t
}

// EntryAttrs is the minimal view auth needs of a store entry, satisfied
// directly by *store.Entry without this package importing internal/store
// (which would create an import cycle once the interceptor's terminal
// store adapter calls into auth).
type EntryAttrs interface {
	Values(oid string) [][]byte
}

// LoadState decodes e's pwd* attributes into a State for policy
// evaluation. log receives a warning when pwdReset holds a non-boolean
// value (which is then treated as false); nil disables the warning.
func LoadState(e EntryAttrs, log obalog.Logger) State {
	if log == nil {
		log = obalog.Nop()
	}
	st := State{}
	if v := e.Values(AttrPwdChangedTime); len(v) == 1 {
		st.ChangedTime = DecodeTime(v[0])
	}
	for _, v := range e.Values(AttrPwdFailureTime) {
		if t := DecodeTime(v); !t.IsZero() {
			st.FailureTimes = append(st.FailureTimes, t)
		}
	}
	if v := e.Values(AttrPwdAccountLockedTime); len(v) == 1 {
		st.LockedTime = DecodeTime(v[0])
	}
	for _, v := range e.Values(AttrPwdGraceUseTime) {
		if t := DecodeTime(v); !t.IsZero() {
			st.GraceUses = append(st.GraceUses, t)
		}
	}
	st.History = e.Values(AttrPwdHistory)
	if v := e.Values(AttrPwdReset); len(v) == 1 {
		switch string(v[0]) {
		case "TRUE":
			st.Reset = true
		case "FALSE":
		default:
			log.Warn("pwdReset holds a non-boolean value, treating as false",
				obalog.String("value", string(v[0])))
		}
	}
	return st
}
