package auth

import (
	"time"

	"github.com/oba-directory/obad/internal/acl"
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/obalog"
	"github.com/oba-directory/obad/internal/store"
)

// Mechanism identifies which bind form a BindRequest uses.
type Mechanism int

const (
	MechAnonymous Mechanism = iota
	MechSimple
	MechSASL
)

// BindRequest carries a decoded bind operation's credentials.
type BindRequest struct {
	DN          dn.DN
	Mechanism   Mechanism
	SASLMech    string // e.g. "EXTERNAL", "DIGEST-MD5"; only used for MechSASL
	Credentials []byte

	// ProxyDN is a SASL authzid / proxied-authorization delegate identity:
	// authenticate as DN, but act as ProxyDN for subsequent authorization
	// decisions.
	ProxyDN *dn.DN
}

// Session is the outcome of a successful Authenticate call.
type Session struct {
	Principal dn.DN
	Anonymous bool
	AuthLevel acl.AuthenticationLevel
	// PwdResetOnly mirrors interceptor.Session.PwdResetOnly: the
	// change-after-reset gate is active for this principal.
	PwdResetOnly bool
}

// Authenticator resolves bind requests against the entry store's
// userPassword/pwd* state. It operates on already-decoded credentials;
// the wire-layer bind dispatch that produces a BindRequest lives outside
// this package.
type Authenticator struct {
	Policy *Policy
	Log    obalog.Logger
}

func NewAuthenticator(policy *Policy) *Authenticator {
	if policy == nil {
		policy = DisabledPolicy()
	}
	return &Authenticator{Policy: policy, Log: obalog.Nop()}
}

// Authenticate dispatches on req.Mechanism. now is passed explicitly
// (rather than taken via time.Now) so lockout/expiry decisions are
// reproducible in tests.
func (a *Authenticator) Authenticate(st *store.Store, req BindRequest, now time.Time) (*Session, error) {
	switch req.Mechanism {
	case MechAnonymous:
		return &Session{Anonymous: true, AuthLevel: acl.AuthNone}, nil
	case MechSimple:
		return a.authenticateSimple(st, req, now)
	case MechSASL:
		return a.authenticateSASL(st, req, now)
	default:
		return nil, obaerr.New(obaerr.KindUnwillingToPerform, "auth.Authenticate", req.DN.String())
	}
}

func (a *Authenticator) authenticateSimple(st *store.Store, req BindRequest, now time.Time) (*Session, error) {
	if len(req.Credentials) == 0 {
		// RFC 4513 §5.1.2: simple bind with empty password and non-empty
		// DN is an unauthenticated bind, treated as anonymous.
		return &Session{Anonymous: true, AuthLevel: acl.AuthNone}, nil
	}
	e, err := st.Lookup(req.DN)
	if err != nil {
		return nil, obaerr.New(obaerr.KindInvalidCredentials, "auth.authenticateSimple", req.DN.String())
	}
	principal := e.NormDN

	policyState := LoadState(e, a.Log)
	if a.Policy.IsLockedOut(policyState, now) {
		return nil, obaerr.New(obaerr.KindInvalidCredentials, "auth.authenticateSimple", req.DN.String())
	}

	stored := e.Values(AttrUserPassword)
	if len(stored) == 0 {
		return nil, obaerr.New(obaerr.KindInvalidCredentials, "auth.authenticateSimple", req.DN.String())
	}
	matched := false
	for _, candidate := range stored {
		ok, verr := VerifyPassword(candidate, string(req.Credentials))
		if verr == nil && ok {
			matched = true
			break
		}
	}
	if !matched {
		a.persistFailure(st, e, a.Policy.RecordFailure(policyState, now))
		return nil, obaerr.New(obaerr.KindInvalidCredentials, "auth.authenticateSimple", req.DN.String())
	}
	a.persistSuccess(st, e, now)

	session := &Session{Principal: principal, AuthLevel: acl.AuthSimple}
	session.PwdResetOnly = a.Policy.RequiresChangeAfterReset(policyState)
	if req.ProxyDN != nil {
		session.Principal = *req.ProxyDN
	}
	return session, nil
}

// persistFailure writes the failure history produced by RecordFailure back
// onto the entry's pwdFailureTime/pwdAccountLockedTime attributes. This is
// an internal counter update applied straight at the store, not a chained
// client operation, so a persistence error must not change the bind result
// (the bind already failed).
func (a *Authenticator) persistFailure(st *store.Store, e *store.Entry, state State) {
	if !a.Policy.Enabled {
		return
	}
	vals := make([][]byte, len(state.FailureTimes))
	for i, t := range state.FailureTimes {
		vals[i] = EncodeTime(t)
	}
	mods := []dn.Modification{{Op: dn.ModReplace, Type: AttrPwdFailureTime, Values: vals}}
	if !state.LockedTime.IsZero() {
		mods = append(mods, dn.Modification{Op: dn.ModReplace, Type: AttrPwdAccountLockedTime, Values: [][]byte{EncodeTime(state.LockedTime)}})
	}
	_ = st.Modify(e.UserDN, mods, "")
}

// persistSuccess replaces pwdLastSuccess and clears the failure history
// and lock timestamp, per the bind-success transitions of the policy
// state machine.
func (a *Authenticator) persistSuccess(st *store.Store, e *store.Entry, now time.Time) {
	if !a.Policy.Enabled {
		return
	}
	mods := []dn.Modification{
		{Op: dn.ModReplace, Type: AttrPwdLastSuccess, Values: [][]byte{EncodeTime(now)}},
		{Op: dn.ModReplace, Type: AttrPwdFailureTime},
		{Op: dn.ModReplace, Type: AttrPwdAccountLockedTime},
	}
	_ = st.Modify(e.UserDN, mods, "")
}

// authenticateSASL handles the subset of SASL mechanisms a directory core
// can validate without an external GSSAPI/Kerberos library: EXTERNAL
// (identity asserted by the transport, e.g. a TLS client certificate,
// passed in as Credentials) maps to AuthStrong. Any other mechanism name
// is rejected; wiring a full SASL mechanism table is a transport-layer
// concern outside this core.
func (a *Authenticator) authenticateSASL(st *store.Store, req BindRequest, now time.Time) (*Session, error) {
	if req.SASLMech != "EXTERNAL" {
		return nil, obaerr.New(obaerr.KindUnavailableCriticalExtension, "auth.authenticateSASL", req.SASLMech)
	}
	if len(req.Credentials) == 0 {
		return nil, obaerr.New(obaerr.KindInvalidCredentials, "auth.authenticateSASL", req.DN.String())
	}
	asserted, err := dn.Parse(string(req.Credentials))
	if err != nil {
		return nil, obaerr.Wrap(obaerr.KindInvalidCredentials, "auth.authenticateSASL", string(req.Credentials), err)
	}
	e, err := st.Lookup(asserted)
	if err != nil {
		return nil, obaerr.New(obaerr.KindInvalidCredentials, "auth.authenticateSASL", asserted.String())
	}
	policyState := LoadState(e, a.Log)
	if a.Policy.IsLockedOut(policyState, now) {
		return nil, obaerr.New(obaerr.KindInvalidCredentials, "auth.authenticateSASL", asserted.String())
	}
	session := &Session{Principal: e.NormDN, AuthLevel: acl.AuthStrong}
	session.PwdResetOnly = a.Policy.RequiresChangeAfterReset(policyState)
	if req.ProxyDN != nil {
		session.Principal = *req.ProxyDN
	}
	return session, nil
}
