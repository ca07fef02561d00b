package interceptor

import (
	"sync"
	"time"

	"github.com/oba-directory/obad/internal/auth"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/store"
)

// ResetSet is the process-wide concurrent set of DNs under a
// change-after-reset gate. Authentication inserts on a bind succeeding
// with pwdReset still set; internal/auth's ChangePassword path removes on
// a successful password change.
type ResetSet struct {
	mu  sync.RWMutex
	dns map[string]bool
}

func NewResetSet() *ResetSet { return &ResetSet{dns: map[string]bool{}} }

func (s *ResetSet) Add(normDN string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dns[normDN] = true
}

func (s *ResetSet) Remove(normDN string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dns, normDN)
}

func (s *ResetSet) Contains(normDN string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dns[normDN]
}

// Authentication is the chain's second stage: verify credentials via
// internal/auth, attach a Session with the resulting principal and
// authentication level, enforce the anonymous-access policy, and apply
// the password-policy change-after-reset gate to every operation but
// bind/modify-password/unbind/abandon/StartTLS.
type Authentication struct {
	Base
	Authenticator    *auth.Authenticator
	Store            *store.Store
	AllowAnonymous   bool
	ResetSet         *ResetSet
	Now              func() time.Time
}

func NewAuthentication(a *auth.Authenticator, st *store.Store, resetSet *ResetSet, allowAnonymous bool) *Authentication {
	return &Authentication{Authenticator: a, Store: st, ResetSet: resetSet, AllowAnonymous: allowAnonymous, Now: time.Now}
}

func (a *Authentication) Name() string { return "Authentication" }

func (a *Authentication) OnBind(ctx *OpContext, next Handler) error {
	mech := auth.MechAnonymous
	switch {
	case ctx.SASLMechanism != "":
		mech = auth.MechSASL
	case ctx.BindDN != "" && len(ctx.Credentials) == 0:
		return obaerr.New(obaerr.KindUnwillingToPerform, "Authentication", ctx.BindDN)
	case ctx.BindDN != "":
		mech = auth.MechSimple
	}
	bindDN := ctx.DN
	req := auth.BindRequest{DN: bindDN, Mechanism: mech, SASLMech: ctx.SASLMechanism, Credentials: ctx.Credentials}
	if mech == auth.MechAnonymous && !a.AllowAnonymous {
		return obaerr.New(obaerr.KindInsufficientAccessRights, "Authentication", "anonymous bind disabled")
	}
	sess, err := a.Authenticator.Authenticate(a.Store, req, a.now())
	if err != nil {
		return err
	}
	ctx.Session = &Session{
		BindDN:       sess.Principal.String(),
		Anonymous:    sess.Anonymous,
		AuthLevel:    sess.AuthLevel,
		PwdResetOnly: sess.PwdResetOnly,
	}
	if sess.PwdResetOnly {
		a.ResetSet.Add(sess.Principal.String())
	}
	return next(ctx)
}

func (a *Authentication) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// gate enforces the change-after-reset restriction for every operation
// kind except the exempt set.
func (a *Authentication) gate(ctx *OpContext) error {
	if ctx.Session == nil || ctx.Session.Anonymous {
		return nil
	}
	if !a.ResetSet.Contains(ctx.Session.BindDN) {
		return nil
	}
	return obaerr.New(obaerr.KindInsufficientAccessRights, "Authentication", ctx.Session.BindDN)
}

func (a *Authentication) OnAdd(ctx *OpContext, next Handler) error {
	if err := a.gate(ctx); err != nil {
		return err
	}
	return next(ctx)
}
func (a *Authentication) OnModify(ctx *OpContext, next Handler) error {
	if err := a.gate(ctx); err != nil {
		return err
	}
	return next(ctx)
}
func (a *Authentication) OnDelete(ctx *OpContext, next Handler) error {
	if err := a.gate(ctx); err != nil {
		return err
	}
	return next(ctx)
}
func (a *Authentication) OnRename(ctx *OpContext, next Handler) error {
	if err := a.gate(ctx); err != nil {
		return err
	}
	return next(ctx)
}
func (a *Authentication) OnMove(ctx *OpContext, next Handler) error {
	if err := a.gate(ctx); err != nil {
		return err
	}
	return next(ctx)
}
func (a *Authentication) OnSearch(ctx *OpContext, next Handler) error {
	if err := a.gate(ctx); err != nil {
		return err
	}
	return next(ctx)
}
func (a *Authentication) OnLookup(ctx *OpContext, next Handler) error {
	if err := a.gate(ctx); err != nil {
		return err
	}
	return next(ctx)
}
func (a *Authentication) OnCompare(ctx *OpContext, next Handler) error {
	if err := a.gate(ctx); err != nil {
		return err
	}
	return next(ctx)
}
