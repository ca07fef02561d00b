// Package interceptor implements the operation pipeline: an ordered,
// bypass-capable chain of named interceptors threading a decoded
// OpContext from Normalization through the terminal store adapter. An
// interceptor supplies only the operation hooks it cares about and the
// chain threads the rest through.
package interceptor

import (
	"context"

	"github.com/oba-directory/obad/internal/acl"
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/filter"
	"github.com/oba-directory/obad/internal/store"
)

// OpKind identifies which LDAP operation an OpContext carries.
type OpKind int

const (
	OpBind OpKind = iota
	OpUnbind
	OpAdd
	OpModify
	OpDelete
	OpRename
	OpMove
	OpSearch
	OpLookup
	OpCompare
	OpExtended
	OpAbandon
)

// Session is the principal and authentication state attached to a
// connection once Authentication has run.
type Session struct {
	BindDN       string
	Anonymous    bool
	AuthLevel    acl.AuthenticationLevel
	PwdResetOnly bool // true while a change-after-reset gate is active
}

// Result carries whatever a Search/Lookup/Compare/Bind produced back up
// the chain.
type Result struct {
	Entries       []*store.Entry
	Referral      []string // ref URLs: the whole result when the target is a referral entry, or those of referral entries removed from a wider search's Entries
	CompareTrue   bool
	PolicyWarning string // e.g. "password expires in 3600s"
}

// OpContext is the single request/response object threaded through the
// chain, carrying its own per-request bypass set.
type OpContext struct {
	Context context.Context
	Kind    OpKind

	DN            dn.DN
	NewSuperior   *dn.DN
	NewRDN        *dn.RDN
	DeleteOldRDN  bool
	Attrs         map[string]*store.Attribute // Add payload
	Mods          []dn.Modification           // Modify payload
	CompareAttr   string
	CompareValue  []byte

	Filter          filter.Filter
	Scope           filter.Scope
	DerefMode       filter.DerefMode
	SizeLimit       int
	TimeLimit       int
	RequestedAttrs  []string // empty means "all user attributes"
	ManageDsaIT     bool

	BindDN          string
	Credentials     []byte
	SASLMechanism   string

	Session *Session
	Bypass  map[string]bool

	Result *Result
}

// Bypassed reports whether name is in ctx's per-invocation bypass set.
func (ctx *OpContext) Bypassed(name string) bool {
	return ctx.Bypass != nil && ctx.Bypass[name]
}

// WantsAttr reports whether attr was explicitly requested, used by
// OperationalAttribute to decide whether to keep an operational attribute
// in a search/lookup result.
func (ctx *OpContext) WantsAttr(attr string) bool {
	for _, a := range ctx.RequestedAttrs {
		if a == "+" || equalFold(a, attr) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
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
