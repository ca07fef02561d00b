package auth

import "time"

// pruneFailures drops failure timestamps that have aged out of p's
// FailureWindow, a pure function over the pwdFailureTime value set.
func pruneFailures(p *Policy, failures []time.Time, now time.Time) []time.Time {
	if p.FailureWindow == 0 {
		return failures
	}
	cutoff := now.Add(-p.FailureWindow)
	out := failures[:0:0]
	for _, t := range failures {
		if !t.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// IsLockedOut reports whether st's failure history currently locks the
// account, given p and the current time.
func (p *Policy) IsLockedOut(st State, now time.Time) bool {
	if !p.Enabled || p.MaxFailures == 0 || st.LockedTime.IsZero() {
		return false
	}
	if p.LockoutDuration == 0 {
		return true
	}
	return now.Sub(st.LockedTime) < p.LockoutDuration
}

// RecordFailure appends now to st's failure history (pruning stale
// entries first) and sets LockedTime once MaxFailures is reached. The
// caller persists the resulting State back onto pwdFailureTime/
// pwdAccountLockedTime.
func (p *Policy) RecordFailure(st State, now time.Time) State {
	failures := append(pruneFailures(p, st.FailureTimes, now), now)
	st.FailureTimes = failures
	if p.MaxFailures > 0 && len(failures) >= p.MaxFailures {
		st.LockedTime = now
	}
	return st
}

// RecordSuccess clears the failure history and the lock timestamp.
func (p *Policy) RecordSuccess(st State) State {
	st.FailureTimes = nil
	st.LockedTime = time.Time{}
	return st
}
