package auth

// CheckHistory reports an error if candidateHash (the would-be new
// userPassword value) matches any of st's remembered prior hashes, read
// off the entry's pwdHistory attribute values.
func (p *Policy) CheckHistory(st State, candidateHash []byte) error {
	if !p.Enabled || p.HistoryCount == 0 {
		return nil
	}
	for _, h := range st.History {
		if bytesEqual(h, candidateHash) {
			return quality("password was used too recently")
		}
	}
	return nil
}

// PushHistory appends hash to st's history, trimming to HistoryCount
// entries, oldest first.
func (p *Policy) PushHistory(st State, hash []byte) State {
	if !p.Enabled || p.HistoryCount == 0 {
		return st
	}
	history := append(st.History, hash)
	if excess := len(history) - p.HistoryCount; excess > 0 {
		history = history[excess:]
	}
	st.History = history
	return st
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
