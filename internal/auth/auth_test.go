package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
	"github.com/oba-directory/obad/internal/obalog"
	"github.com/oba-directory/obad/internal/schema"
	"github.com/oba-directory/obad/internal/store"
)

func TestHashAndVerifySSHA256(t *testing.T) {
	hash, err := HashPassword(SchemeSSHA256, "s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	ok, err := VerifyPassword(hash, "s3cret!")
	if err != nil || !ok {
		t.Fatalf("VerifyPassword got (%v, %v), want (true, nil)", ok, err)
	}
	if ok, _ := VerifyPassword(hash, "wrong"); ok {
		t.Fatalf("VerifyPassword matched a wrong password")
	}
}

func TestHashAndVerifyBcrypt(t *testing.T) {
	hash, err := HashPassword(SchemeBcrypt, "s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	ok, err := VerifyPassword(hash, "s3cret!")
	if err != nil || !ok {
		t.Fatalf("VerifyPassword got (%v, %v), want (true, nil)", ok, err)
	}
}

func TestVerifyPasswordClearText(t *testing.T) {
	ok, err := VerifyPassword([]byte("plain"), "plain")
	if err != nil || !ok {
		t.Fatalf("VerifyPassword got (%v, %v), want (true, nil)", ok, err)
	}
}

func TestPolicyQuality(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Validate("short"); err == nil {
		t.Fatalf("expected too-short error")
	}
	if err := p.Validate("LongEnough1"); err != nil {
		t.Fatalf("unexpected quality error: %v", err)
	}
}

func TestLockoutAfterMaxFailures(t *testing.T) {
	p := DefaultPolicy()
	p.MaxFailures = 3
	p.LockoutDuration = time.Minute
	now := time.Unix(1700000000, 0)

	st := State{}
	for i := 0; i < 3; i++ {
		st = p.RecordFailure(st, now.Add(time.Duration(i)*time.Second))
	}
	if !p.IsLockedOut(st, now.Add(3*time.Second)) {
		t.Fatalf("expected account locked after 3 failures")
	}
	if p.IsLockedOut(st, now.Add(2*time.Minute)) {
		t.Fatalf("expected lockout to expire after LockoutDuration")
	}
}

func seedBindStore(t *testing.T, password string) (*store.Store, dn.DN) {
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

	domain := map[string]*store.Attribute{
		schema.AttrObjectClass: {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("domain")}},
		"0.9.2342.19200300.100.1.25": {OID: "0.9.2342.19200300.100.1.25", UserName: "dc", Values: [][]byte{[]byte("example")}},
	}
	if _, err := st.Add(dn.MustParse("dc=example,dc=com"), domain, ""); err != nil {
		t.Fatalf("seed suffix: %v", err)
	}

	hashed, err := HashPassword(SchemeSSHA256, password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	bobDN := dn.MustParse("cn=bob,dc=example,dc=com")
	bob := map[string]*store.Attribute{
		schema.AttrObjectClass: {OID: schema.AttrObjectClass, UserName: "objectClass", Values: [][]byte{[]byte("top"), []byte("person")}},
		"2.5.4.3":              {OID: "2.5.4.3", UserName: "cn", Values: [][]byte{[]byte("bob")}},
		"2.5.4.4":              {OID: "2.5.4.4", UserName: "sn", Values: [][]byte{[]byte("Builder")}},
		AttrUserPassword:       {OID: AttrUserPassword, UserName: "userPassword", Values: [][]byte{hashed}},
	}
	if _, err := st.Add(bobDN, bob, ""); err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	return st, bobDN
}

func TestBindFailuresLockAccount(t *testing.T) {
	st, bobDN := seedBindStore(t, "RightAnswer1")

	policy := DefaultPolicy()
	policy.MaxFailures = 3
	policy.LockoutDuration = 15 * time.Minute
	a := NewAuthenticator(policy)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	wrong := BindRequest{DN: bobDN, Mechanism: MechSimple, Credentials: []byte("wrong")}
	for i := 0; i < 3; i++ {
		if _, err := a.Authenticate(st, wrong, now.Add(time.Duration(i)*time.Second)); obaerr.KindOf(err) != obaerr.KindInvalidCredentials {
			t.Fatalf("attempt %d: expected InvalidCredentials, got %v", i, err)
		}
	}

	e, err := st.Lookup(bobDN)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := e.Values(AttrPwdFailureTime); len(got) != 3 {
		t.Fatalf("pwdFailureTime has %d values, want 3", len(got))
	}
	if got := e.Values(AttrPwdAccountLockedTime); len(got) != 1 {
		t.Fatalf("pwdAccountLockedTime not set after max failures")
	}

	// A correct password is rejected while the lockout window holds.
	right := BindRequest{DN: bobDN, Mechanism: MechSimple, Credentials: []byte("RightAnswer1")}
	if _, err := a.Authenticate(st, right, now.Add(time.Minute)); obaerr.KindOf(err) != obaerr.KindInvalidCredentials {
		t.Fatalf("expected locked account to reject the correct password, got %v", err)
	}

	// After the window elapses the bind succeeds and clears the counters.
	sess, err := a.Authenticate(st, right, now.Add(16*time.Minute))
	if err != nil {
		t.Fatalf("bind after lockout window: %v", err)
	}
	if sess.Anonymous {
		t.Fatal("expected an authenticated session")
	}
	e, err = st.Lookup(bobDN)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := e.Values(AttrPwdFailureTime); len(got) != 0 {
		t.Fatalf("pwdFailureTime not cleared on success: %d values", len(got))
	}
	if got := e.Values(AttrPwdAccountLockedTime); len(got) != 0 {
		t.Fatal("pwdAccountLockedTime not cleared on success")
	}
	if got := e.Values(AttrPwdLastSuccess); len(got) != 1 {
		t.Fatal("pwdLastSuccess not stamped on success")
	}
}

func TestHistoryRejectsReuse(t *testing.T) {
	p := DefaultPolicy()
	st := State{}
	st = p.PushHistory(st, []byte("hash1"))
	st = p.PushHistory(st, []byte("hash2"))
	if err := p.CheckHistory(st, []byte("hash1")); err == nil {
		t.Fatalf("expected reuse of hash1 to be rejected")
	}
	if err := p.CheckHistory(st, []byte("hash3")); err != nil {
		t.Fatalf("unexpected rejection of a fresh hash: %v", err)
	}
}

func TestRequiresChangeAfterReset(t *testing.T) {
	p := DefaultPolicy()
	if !p.RequiresChangeAfterReset(State{Reset: true}) {
		t.Fatalf("expected reset gate to be required")
	}
	p.Enabled = false
	if p.RequiresChangeAfterReset(State{Reset: true}) {
		t.Fatalf("expected reset gate to be skipped when policy disabled")
	}
}

type attrMap map[string][][]byte

func (m attrMap) Values(oid string) [][]byte { return m[oid] }

// warnRecorder captures Warn messages so tests can assert on them.
type warnRecorder struct {
	warnings []string
}

func (w *warnRecorder) Debug(string, ...obalog.Field) {}
func (w *warnRecorder) Info(string, ...obalog.Field)  {}
func (w *warnRecorder) Warn(msg string, _ ...obalog.Field) {
	w.warnings = append(w.warnings, msg)
}
func (w *warnRecorder) Error(string, ...obalog.Field)      {}
func (w *warnRecorder) With(...obalog.Field) obalog.Logger { return w }
func (w *warnRecorder) Sync() error                        { return nil }

func TestLoadStatePwdReset(t *testing.T) {
	rec := &warnRecorder{}
	st := LoadState(attrMap{AttrPwdReset: {[]byte("TRUE")}}, rec)
	if !st.Reset || len(rec.warnings) != 0 {
		t.Fatalf("TRUE: Reset=%v warnings=%v", st.Reset, rec.warnings)
	}

	st = LoadState(attrMap{AttrPwdReset: {[]byte("FALSE")}}, rec)
	if st.Reset || len(rec.warnings) != 0 {
		t.Fatalf("FALSE: Reset=%v warnings=%v", st.Reset, rec.warnings)
	}

	// A non-boolean value is treated as false and logged.
	st = LoadState(attrMap{AttrPwdReset: {[]byte("maybe")}}, rec)
	if st.Reset {
		t.Fatal("non-boolean pwdReset must be treated as false")
	}
	if len(rec.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", rec.warnings)
	}
}

func TestEncodeDecodeTimeRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := DecodeTime(EncodeTime(now))
	if !got.Equal(now) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, now)
	}
}
