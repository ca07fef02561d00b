package interceptor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/oba-directory/obad/internal/auth"
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/filter"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

// recorder is a minimal interceptor that logs its name when an operation
// passes through it.
type recorder struct {
	Base
	name string
	log  *[]string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnSearch(ctx *OpContext, next Handler) error {
	*r.log = append(*r.log, r.name)
	return next(ctx)
}

func TestChainInvokesInOrder(t *testing.T) {
	var log []string
	c := New(
		&recorder{name: "first", log: &log},
		&recorder{name: "second", log: &log},
		&recorder{name: "third", log: &log},
	)
	ctx := &OpContext{Context: context.Background(), Kind: OpSearch}
	if err := c.Invoke(ctx); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log = %v, want %v", log, want)
		}
	}
}

func TestChainSkipsBypassedInterceptors(t *testing.T) {
	var log []string
	c := New(
		&recorder{name: "first", log: &log},
		&recorder{name: "second", log: &log},
		&recorder{name: "third", log: &log},
	)
	ctx := &OpContext{
		Context: context.Background(),
		Kind:    OpSearch,
		Bypass:  map[string]bool{"second": true},
	}
	if err := c.Invoke(ctx); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(log) != 2 || log[0] != "first" || log[1] != "third" {
		t.Fatalf("log = %v, want [first third]", log)
	}
}

func TestBypassAllExcept(t *testing.T) {
	var log []string
	c := New(
		&recorder{name: "a", log: &log},
		&recorder{name: "b", log: &log},
		&recorder{name: "c", log: &log},
	)
	bypass := c.BypassAllExcept("c")
	if bypass["c"] {
		t.Error("kept interceptor must not be in the bypass set")
	}
	if !bypass["a"] || !bypass["b"] {
		t.Errorf("bypass = %v, want a and b bypassed", bypass)
	}
}

// testService wires the full canonical chain against a real store, the
// way internal/directory.Open does, with ACI evaluation disabled so
// DefaultAuthorization's admin/self fallback governs writes.
type testService struct {
	reg      *schema.Registry
	st       *store.Store
	chain    *Chain
	resetSet *ResetSet
	opattr   *OperationalAttribute
	event    *Event
	trigger  *Trigger
}

const testAdminDN = "cn=admin,dc=example,dc=com"

func newTestService(t *testing.T) *testService {
	t.Helper()
	reg := schema.NewRegistry()
	if err := schema.LoadDefaults(reg); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	st, err := store.Open(reg, dn.MustParse("dc=example,dc=com"), filepath.Join(t.TempDir(), "wal.log"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	authenticator := auth.NewAuthenticator(auth.DisabledPolicy())
	resetSet := NewResetSet()
	adminPoint := NewAdministrativePoint(st)
	opattr := NewOperationalAttribute(reg, st)
	event := NewEvent()
	trigger := NewTrigger()
	chain := New(
		NewNormalization(reg),
		NewAuthentication(authenticator, st, resetSet, true),
		NewReferral(st),
		NewAciAuthorization(st, false),
		NewDefaultAuthorization(dn.MustParse(testAdminDN), false),
		adminPoint,
		NewException(),
		NewSchema(reg, st),
		opattr,
		NewSubentry(),
		NewCollective(reg, st, adminPoint),
		event,
		trigger,
		NewStoreAdapter(reg, st),
	)
	svc := &testService{reg: reg, st: st, chain: chain, resetSet: resetSet, opattr: opattr, event: event, trigger: trigger}
	svc.seed(t)
	return svc
}

// seed adds the partition suffix and an admin principal directly through
// the store, standing in for internal/directory's bootstrap.
func (s *testService) seed(t *testing.T) {
	t.Helper()
	domain := map[string]*store.Attribute{
		schema.AttrObjectClass: {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("domain")}},
		"0.9.2342.19200300.100.1.25": {OID: "0.9.2342.19200300.100.1.25", UserName: "dc", Values: [][]byte{[]byte("example")}},
	}
	if _, err := s.st.Add(dn.MustParse("dc=example,dc=com"), domain, ""); err != nil {
		t.Fatalf("seed suffix: %v", err)
	}
	hashed, err := auth.HashPassword(auth.SchemeSSHA256, "secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := map[string]*store.Attribute{
		schema.AttrObjectClass: {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("person")}},
		"2.5.4.3":              {OID: "2.5.4.3", UserName: "cn", Values: [][]byte{[]byte("admin")}},
		"2.5.4.4":              {OID: "2.5.4.4", UserName: "sn", Values: [][]byte{[]byte("admin")}},
		auth.AttrUserPassword:  {OID: auth.AttrUserPassword, UserName: "userPassword", Values: [][]byte{hashed}},
	}
	if _, err := s.st.Add(dn.MustParse(testAdminDN), admin, ""); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
}

// bind runs a simple bind through the chain and returns the session.
func (s *testService) bind(t *testing.T, bindDN, password string) *Session {
	t.Helper()
	ctx := &OpContext{
		Context:     context.Background(),
		Kind:        OpBind,
		DN:          dn.MustParse(bindDN),
		BindDN:      bindDN,
		Credentials: []byte(password),
	}
	if err := s.chain.Invoke(ctx); err != nil {
		t.Fatalf("bind %s: %v", bindDN, err)
	}
	if ctx.Session == nil {
		t.Fatalf("bind %s: no session attached", bindDN)
	}
	return ctx.Session
}

func personAttrs(cn, sn string) map[string]*store.Attribute {
	return map[string]*store.Attribute{
		schema.AttrObjectClass: {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("person")}},
		"2.5.4.3":              {OID: "2.5.4.3", UserName: "cn", Values: [][]byte{[]byte(cn)}},
		"2.5.4.4":              {OID: "2.5.4.4", UserName: "sn", Values: [][]byte{[]byte(sn)}},
	}
}

func TestBindAddSearch(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")

	add := &OpContext{
		Context: context.Background(),
		Kind:    OpAdd,
		DN:      dn.MustParse("cn=alice,dc=example,dc=com"),
		Attrs:   personAttrs("alice", "Apple"),
		Session: sess,
	}
	if err := svc.chain.Invoke(add); err != nil {
		t.Fatalf("add: %v", err)
	}

	search := &OpContext{
		Context: context.Background(),
		Kind:    OpSearch,
		DN:      dn.MustParse("dc=example,dc=com"),
		Scope:   filter.ScopeSubtree,
		Filter:  filter.Equality("cn", "alice"),
		Session: sess,
	}
	if err := svc.chain.Invoke(search); err != nil {
		t.Fatalf("search: %v", err)
	}
	if search.Result == nil || len(search.Result.Entries) != 1 {
		t.Fatalf("expected exactly one result, got %+v", search.Result)
	}
	got := search.Result.Entries[0].UserDN.String()
	if got != "cn=alice,dc=example,dc=com" {
		t.Errorf("result DN = %q", got)
	}
}

func TestBindWithDNButNoCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := &OpContext{
		Context: context.Background(),
		Kind:    OpBind,
		DN:      dn.MustParse(testAdminDN),
		BindDN:  testAdminDN,
	}
	err := svc.chain.Invoke(ctx)
	if obaerr.KindOf(err) != obaerr.KindUnwillingToPerform {
		t.Fatalf("expected UnwillingToPerform, got %v", err)
	}
}

func TestBindWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := &OpContext{
		Context:     context.Background(),
		Kind:        OpBind,
		DN:          dn.MustParse(testAdminDN),
		BindDN:      testAdminDN,
		Credentials: []byte("wrong"),
	}
	err := svc.chain.Invoke(ctx)
	if obaerr.KindOf(err) != obaerr.KindInvalidCredentials {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
}

func TestStructuralClassRemovalBlocked(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")

	add := &OpContext{
		Context: context.Background(),
		Kind:    OpAdd,
		DN:      dn.MustParse("cn=bob,dc=example,dc=com"),
		Attrs:   personAttrs("bob", "Builder"),
		Session: sess,
	}
	if err := svc.chain.Invoke(add); err != nil {
		t.Fatalf("add: %v", err)
	}

	mod := &OpContext{
		Context: context.Background(),
		Kind:    OpModify,
		DN:      dn.MustParse("cn=bob,dc=example,dc=com"),
		Mods: []dn.Modification{
			{Op: dn.ModReplace, Type: "objectClass", Values: [][]byte{[]byte("top")}},
		},
		Session: sess,
	}
	err := svc.chain.Invoke(mod)
	if obaerr.KindOf(err) != obaerr.KindObjectClassViolation {
		t.Fatalf("expected ObjectClassViolation, got %v", err)
	}
}

func TestModifyRDNValueBlocked(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")

	add := &OpContext{
		Context: context.Background(),
		Kind:    OpAdd,
		DN:      dn.MustParse("cn=carol,dc=example,dc=com"),
		Attrs:   personAttrs("carol", "Chrome"),
		Session: sess,
	}
	if err := svc.chain.Invoke(add); err != nil {
		t.Fatalf("add: %v", err)
	}

	mod := &OpContext{
		Context: context.Background(),
		Kind:    OpModify,
		DN:      dn.MustParse("cn=carol,dc=example,dc=com"),
		Mods: []dn.Modification{
			{Op: dn.ModDelete, Type: "cn", Values: [][]byte{[]byte("carol")}},
		},
		Session: sess,
	}
	err := svc.chain.Invoke(mod)
	if obaerr.KindOf(err) != obaerr.KindNotAllowedOnRDN {
		t.Fatalf("expected NotAllowedOnRDN, got %v", err)
	}
}

func TestNormalizationRejectsUndefinedFilterAttribute(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")

	search := &OpContext{
		Context: context.Background(),
		Kind:    OpSearch,
		DN:      dn.MustParse("dc=example,dc=com"),
		Scope:   filter.ScopeSubtree,
		Filter:  filter.Equality("nosuchattribute", "x"),
		Session: sess,
	}
	err := svc.chain.Invoke(search)
	if obaerr.KindOf(err) != obaerr.KindUndefinedAttributeType {
		t.Fatalf("expected UndefinedAttributeType, got %v", err)
	}
}

func TestChangeAfterResetGate(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")
	svc.resetSet.Add(sess.BindDN)

	search := &OpContext{
		Context: context.Background(),
		Kind:    OpSearch,
		DN:      dn.MustParse("dc=example,dc=com"),
		Scope:   filter.ScopeSubtree,
		Filter:  filter.Presence("objectClass"),
		Session: sess,
	}
	err := svc.chain.Invoke(search)
	if obaerr.KindOf(err) != obaerr.KindInsufficientAccessRights {
		t.Fatalf("expected InsufficientAccessRights while pwdReset is pending, got %v", err)
	}

	svc.resetSet.Remove(sess.BindDN)
	search.Result = nil
	if err := svc.chain.Invoke(search); err != nil {
		t.Fatalf("search after reset cleared: %v", err)
	}
}

func TestDefaultAuthorizationDeniesNonAdminWrite(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")

	add := &OpContext{
		Context: context.Background(),
		Kind:    OpAdd,
		DN:      dn.MustParse("cn=dave,dc=example,dc=com"),
		Attrs:   personAttrs("dave", "Doe"),
		Session: sess,
	}
	if err := svc.chain.Invoke(add); err != nil {
		t.Fatalf("admin add: %v", err)
	}

	daveSess := &Session{BindDN: "cn=dave,dc=example,dc=com"}
	del := &OpContext{
		Context: context.Background(),
		Kind:    OpDelete,
		DN:      dn.MustParse(testAdminDN),
		Session: daveSess,
	}
	err := svc.chain.Invoke(del)
	if obaerr.KindOf(err) != obaerr.KindInsufficientAccessRights {
		t.Fatalf("expected InsufficientAccessRights, got %v", err)
	}

	// Self-modification is permitted under the fallback policy.
	mod := &OpContext{
		Context: context.Background(),
		Kind:    OpModify,
		DN:      dn.MustParse("cn=dave,dc=example,dc=com"),
		Mods: []dn.Modification{
			{Op: dn.ModReplace, Type: "sn", Values: [][]byte{[]byte("Deer")}},
		},
		Session: daveSess,
	}
	if err := svc.chain.Invoke(mod); err != nil {
		t.Fatalf("self modify: %v", err)
	}
}

func TestOperationalAttributesStrippedUnlessRequested(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")
	svc.opattr.Now = func() time.Time { return time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC) }

	add := &OpContext{
		Context: context.Background(),
		Kind:    OpAdd,
		DN:      dn.MustParse("cn=erin,dc=example,dc=com"),
		Attrs:   personAttrs("erin", "Edge"),
		Session: sess,
	}
	if err := svc.chain.Invoke(add); err != nil {
		t.Fatalf("add: %v", err)
	}

	lookup := &OpContext{
		Context: context.Background(),
		Kind:    OpLookup,
		DN:      dn.MustParse("cn=erin,dc=example,dc=com"),
		Session: sess,
	}
	if err := svc.chain.Invoke(lookup); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	e := lookup.Result.Entries[0]
	if e.Values(schema.AttrCreateTimestamp) != nil {
		t.Errorf("createTimestamp should be stripped when not requested")
	}
	if e.Values("2.5.4.4") == nil {
		t.Errorf("user attribute sn should survive stripping")
	}

	lookup = &OpContext{
		Context:        context.Background(),
		Kind:           OpLookup,
		DN:             dn.MustParse("cn=erin,dc=example,dc=com"),
		RequestedAttrs: []string{"+"},
		Session:        sess,
	}
	if err := svc.chain.Invoke(lookup); err != nil {
		t.Fatalf("lookup with +: %v", err)
	}
	e = lookup.Result.Entries[0]
	if got := e.Values(schema.AttrCreateTimestamp); len(got) == 0 || string(got[0]) != "20240517120000Z" {
		t.Errorf("createTimestamp = %q, want 20240517120000Z", got)
	}
}

func TestReferralShortCircuit(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")

	ref := map[string]*store.Attribute{
		schema.AttrObjectClass: {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("referral")}},
		"2.5.4.11":             {OID: "2.5.4.11", UserName: "ou", Values: [][]byte{[]byte("remote")}},
		"2.16.840.1.113730.3.1.34": {OID: "2.16.840.1.113730.3.1.34", UserName: "ref", Values: [][]byte{[]byte("ldap://other.example.com/ou=remote,dc=example,dc=com")}},
	}
	if _, err := svc.st.Add(dn.MustParse("ou=remote,dc=example,dc=com"), ref, ""); err != nil {
		t.Fatalf("seed referral: %v", err)
	}

	lookup := &OpContext{
		Context: context.Background(),
		Kind:    OpLookup,
		DN:      dn.MustParse("ou=remote,dc=example,dc=com"),
		Session: sess,
	}
	if err := svc.chain.Invoke(lookup); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(lookup.Result.Referral) != 1 || len(lookup.Result.Entries) != 0 {
		t.Fatalf("expected a referral result, got %+v", lookup.Result)
	}

	lookup = &OpContext{
		Context:     context.Background(),
		Kind:        OpLookup,
		DN:          dn.MustParse("ou=remote,dc=example,dc=com"),
		ManageDsaIT: true,
		Session:     sess,
	}
	if err := svc.chain.Invoke(lookup); err != nil {
		t.Fatalf("lookup with ManageDsaIT: %v", err)
	}
	if len(lookup.Result.Entries) != 1 {
		t.Fatalf("expected the referral entry itself under ManageDsaIT, got %+v", lookup.Result)
	}
}

func TestSubtreeSearchFlagsTraversedReferral(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")

	ref := map[string]*store.Attribute{
		schema.AttrObjectClass: {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("referral")}},
		"2.5.4.11":             {OID: "2.5.4.11", UserName: "ou", Values: [][]byte{[]byte("elsewhere")}},
		"2.16.840.1.113730.3.1.34": {OID: "2.16.840.1.113730.3.1.34", UserName: "ref", Values: [][]byte{[]byte("ldap://b.example.com/ou=elsewhere,dc=example,dc=com")}},
	}
	if _, err := svc.st.Add(dn.MustParse("ou=elsewhere,dc=example,dc=com"), ref, ""); err != nil {
		t.Fatalf("seed referral: %v", err)
	}

	search := &OpContext{
		Context: context.Background(),
		Kind:    OpSearch,
		DN:      dn.MustParse("dc=example,dc=com"),
		Scope:   filter.ScopeSubtree,
		Filter:  filter.Presence("objectClass"),
		Session: sess,
	}
	if err := svc.chain.Invoke(search); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(search.Result.Referral) != 1 {
		t.Fatalf("expected the traversed referral's URL to be flagged, got %+v", search.Result)
	}
	for _, e := range search.Result.Entries {
		if e.UserDN.String() == "ou=elsewhere,dc=example,dc=com" {
			t.Error("referral entry must not appear among the result entries")
		}
	}
}

func TestEventPublishOnCommit(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")
	events := svc.event.Subscribe()

	add := &OpContext{
		Context: context.Background(),
		Kind:    OpAdd,
		DN:      dn.MustParse("cn=frank,dc=example,dc=com"),
		Attrs:   personAttrs("frank", "Field"),
		Session: sess,
	}
	if err := svc.chain.Invoke(add); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Kind != OpAdd || evt.DN.String() != "cn=frank,dc=example,dc=com" {
			t.Errorf("event = %+v", evt)
		}
	default:
		t.Fatal("expected a change event after add")
	}
}

func TestEventNotPublishedOnFailure(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")
	events := svc.event.Subscribe()

	add := &OpContext{
		Context: context.Background(),
		Kind:    OpAdd,
		DN:      dn.MustParse("cn=ghost,ou=missing,dc=example,dc=com"),
		Attrs:   personAttrs("ghost", "Gone"),
		Session: sess,
	}
	if err := svc.chain.Invoke(add); err == nil {
		t.Fatal("expected add under a missing parent to fail")
	}
	select {
	case evt := <-events:
		t.Fatalf("no event expected for a failed add, got %+v", evt)
	default:
	}
}

func TestTriggerFiresOnMatchingSubtree(t *testing.T) {
	svc := newTestService(t)
	sess := svc.bind(t, testAdminDN, "secret")

	var fired []string
	svc.trigger.Register(&TriggerSpec{
		Name:  "audit-adds",
		Kinds: map[OpKind]bool{OpAdd: true},
		Base:  dn.MustParse("dc=example,dc=com"),
		Action: func(ctx *OpContext) error {
			fired = append(fired, ctx.DN.String())
			return nil
		},
	})

	add := &OpContext{
		Context: context.Background(),
		Kind:    OpAdd,
		DN:      dn.MustParse("cn=grace,dc=example,dc=com"),
		Attrs:   personAttrs("grace", "Garden"),
		Session: sess,
	}
	if err := svc.chain.Invoke(add); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(fired) != 1 || fired[0] != "cn=grace,dc=example,dc=com" {
		t.Fatalf("fired = %v", fired)
	}

	// A delete must not fire an add-only trigger.
	del := &OpContext{
		Context: context.Background(),
		Kind:    OpDelete,
		DN:      dn.MustParse("cn=grace,dc=example,dc=com"),
		Session: sess,
	}
	if err := svc.chain.Invoke(del); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("add-only trigger fired on delete: %v", fired)
	}
}
