package interceptor

import (
	"sync"

	"github.com/oba-directory/obad/internal/dn"
	"github.com/oba-directory/obad/internal/store"
	"github.com/oba-directory/obad/internal/subentry"
)

// AdministrativePoint is the chain's sixth stage: maintain the
// administrative-area metadata the Subentry/Collective stages consume,
// i.e. which entries hold at least one subentry as an immediate child and
// which subentries apply there. The index kept here lets Collective avoid
// a full-tree scan per lookup: administrative point DN -> its subentries'
// normalized DNs.
type AdministrativePoint struct {
	Base
	Store *store.Store

	mu         sync.RWMutex
	subentries map[string][]string // admin point norm DN -> subentry norm DNs
}

func NewAdministrativePoint(st *store.Store) *AdministrativePoint {
	return &AdministrativePoint{Store: st, subentries: map[string][]string{}}
}

func (ap *AdministrativePoint) Name() string { return "AdministrativePoint" }

// SubentriesUnder returns the normalized DNs of subentries registered
// directly under adminPoint.
func (ap *AdministrativePoint) SubentriesUnder(adminPoint dn.DN) []string {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return append([]string(nil), ap.subentries[adminPoint.Render(dn.StyleNormalized)]...)
}

func (ap *AdministrativePoint) register(parentNorm, subNorm string) {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.subentries[parentNorm] = append(ap.subentries[parentNorm], subNorm)
}

func (ap *AdministrativePoint) unregister(parentNorm, subNorm string) {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	list := ap.subentries[parentNorm]
	out := list[:0]
	for _, d := range list {
		if d != subNorm {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		delete(ap.subentries, parentNorm)
	} else {
		ap.subentries[parentNorm] = out
	}
}

func (ap *AdministrativePoint) OnAdd(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	if e, err := ap.Store.Lookup(ctx.DN); err == nil && subentry.IsSubentry(e) {
		ap.register(e.NormDN.Parent().Render(dn.StyleNormalized), e.NormDN.Render(dn.StyleNormalized))
	}
	return nil
}

func (ap *AdministrativePoint) OnDelete(ctx *OpContext, next Handler) error {
	e, lookupErr := ap.Store.Lookup(ctx.DN)
	if err := next(ctx); err != nil {
		return err
	}
	if lookupErr == nil && subentry.IsSubentry(e) {
		ap.unregister(e.NormDN.Parent().Render(dn.StyleNormalized), e.NormDN.Render(dn.StyleNormalized))
	}
	return nil
}
