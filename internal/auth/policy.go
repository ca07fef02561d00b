package auth

import "time"

// Policy configures the password-policy state machine. State is
// evaluated against pwd* attribute values read off an entry rather than
// kept in an in-memory lockout/history map, since the entry itself is
// the durable record here.
type Policy struct {
	Enabled bool

	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool

	MaxAge time.Duration
	MinAge time.Duration

	HistoryCount int

	MaxFailures     int
	LockoutDuration time.Duration // 0 means permanent until admin unlock
	FailureWindow   time.Duration // 0 means failures never expire

	GraceLogins int

	MustChangeOnReset bool
}

func DefaultPolicy() *Policy {
	return &Policy{
		Enabled:           true,
		MinLength:         8,
		MaxLength:         128,
		RequireUpper:      true,
		RequireLower:      true,
		RequireDigit:      true,
		MaxAge:            90 * 24 * time.Hour,
		HistoryCount:      5,
		MaxFailures:       5,
		LockoutDuration:   15 * time.Minute,
		GraceLogins:       0,
		MustChangeOnReset: true,
	}
}

func DisabledPolicy() *Policy { return &Policy{} }

// State is the pwd* attribute values of a single entry, decoded into Go
// types, for policy evaluation against a point in time.
type State struct {
	ChangedTime  time.Time
	FailureTimes []time.Time
	LockedTime   time.Time
	GraceUses    []time.Time
	History      [][]byte // prior password hashes, oldest first
	Reset        bool
}

// Validate checks a candidate plaintext password against quality rules
// (length, character classes); see quality.go.
func (p *Policy) Validate(plaintext string) error {
	if !p.Enabled {
		return nil
	}
	return checkQuality(p, plaintext)
}

// IsExpired reports whether the password has exceeded MaxAge as of now.
func (p *Policy) IsExpired(st State, now time.Time) bool {
	if !p.Enabled || p.MaxAge == 0 || st.ChangedTime.IsZero() {
		return false
	}
	return now.Sub(st.ChangedTime) > p.MaxAge
}

// CanChange reports whether MinAge has elapsed since the last change.
func (p *Policy) CanChange(st State, now time.Time) bool {
	if !p.Enabled || p.MinAge == 0 || st.ChangedTime.IsZero() {
		return true
	}
	return now.Sub(st.ChangedTime) >= p.MinAge
}

// RequiresChangeAfterReset reports whether a principal reset by an admin
// must change their password before any other operation. The gate is
// enforced only while password policy is enabled at all.
func (p *Policy) RequiresChangeAfterReset(st State) bool {
	return p.Enabled && p.MustChangeOnReset && st.Reset
}

// GraceRemaining returns how many of the policy's grace logins are left.
func (p *Policy) GraceRemaining(st State) int {
	if !p.Enabled {
		return p.GraceLogins
	}
	remaining := p.GraceLogins - len(st.GraceUses)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ValidationError reports a specific password-quality failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func quality(reason string) error { return &ValidationError{Reason: reason} }
