package store

import (
	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/obaerr"
)

// maxAliasChain bounds alias dereferencing so a chain of aliases can never
// spin forever even if checkAliasCycle somehow missed a loop (defense in
// depth; surfaces as LoopDetect).
const maxAliasChain = 32

// checkAliasCycle rejects a target that is selfNorm itself or one of its
// ancestors (AliasDereferencingProblem), a target that does not exist
// (AliasProblem), and a target that is itself an alias
// (AliasDereferencingProblem), so no alias chain, and hence no cycle
// through other aliases, can form.
func (s *Store) checkAliasCycle(selfNorm, target dn.DN) error {
	if target.Equal(selfNorm, nil) || target.AncestorOf(selfNorm, nil) {
		return obaerr.New(obaerr.KindAliasDereferencingProblem, "store.checkAliasCycle", target.String())
	}
	id, ok := s.ix.ndn[target.Render(dn.StyleNormalized)]
	if !ok {
		return obaerr.New(obaerr.KindAliasProblem, "store.checkAliasCycle", target.String())
	}
	if _, isAlias := s.ix.alias[id]; isAlias {
		// An alias's target may not itself be an alias: no chains,
		// even a resolvable one.
		return obaerr.New(obaerr.KindAliasDereferencingProblem, "store.checkAliasCycle", target.String())
	}
	return nil
}

// Resolve follows id's alias chain (if any) to the final non-alias target
// entry id, for use by internal/filter's alias-dereferencing modes
// (never/finding-base/searching/always). ok is false if id
// does not exist or the chain exceeds maxAliasChain (LoopDetect).
func (s *Store) Resolve(id EntryID) (EntryID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := id
	for i := 0; i < maxAliasChain; i++ {
		target, isAlias := s.ix.alias[cur]
		if !isAlias {
			if _, ok := s.master[cur]; !ok {
				return 0, false
			}
			return cur, true
		}
		next, ok := s.ix.ndn[target.Render(dn.StyleNormalized)]
		if !ok {
			return 0, false
		}
		cur = next
	}
	return 0, false
}

// IsAlias reports whether id is an alias entry.
func (s *Store) IsAlias(id EntryID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ix.alias[id]
	return ok
}
