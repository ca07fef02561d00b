package interceptor

// Handler is the continuation an interceptor invokes to pass control to
// the next participant in the chain.
type Handler func(*OpContext) error

// Hooks is the full per-operation capability set. Base supplies a no-op
// passthrough for all of them; a concrete interceptor embeds Base and
// overrides only the hooks it cares about, and the chain threads the rest
// through unchanged.
type Hooks interface {
	OnBind(ctx *OpContext, next Handler) error
	OnUnbind(ctx *OpContext, next Handler) error
	OnAdd(ctx *OpContext, next Handler) error
	OnModify(ctx *OpContext, next Handler) error
	OnDelete(ctx *OpContext, next Handler) error
	OnRename(ctx *OpContext, next Handler) error
	OnMove(ctx *OpContext, next Handler) error
	OnSearch(ctx *OpContext, next Handler) error
	OnLookup(ctx *OpContext, next Handler) error
	OnCompare(ctx *OpContext, next Handler) error
	OnExtended(ctx *OpContext, next Handler) error
	OnAbandon(ctx *OpContext, next Handler) error
}

// Interceptor is a named, stable participant in the chain.
type Interceptor interface {
	Name() string
	Hooks
}

// Base gives every interceptor a default passthrough for hooks it does not
// implement.
type Base struct{}

func (Base) OnBind(ctx *OpContext, next Handler) error     { return next(ctx) }
func (Base) OnUnbind(ctx *OpContext, next Handler) error   { return next(ctx) }
func (Base) OnAdd(ctx *OpContext, next Handler) error      { return next(ctx) }
func (Base) OnModify(ctx *OpContext, next Handler) error   { return next(ctx) }
func (Base) OnDelete(ctx *OpContext, next Handler) error   { return next(ctx) }
func (Base) OnRename(ctx *OpContext, next Handler) error   { return next(ctx) }
func (Base) OnMove(ctx *OpContext, next Handler) error     { return next(ctx) }
func (Base) OnSearch(ctx *OpContext, next Handler) error   { return next(ctx) }
func (Base) OnLookup(ctx *OpContext, next Handler) error   { return next(ctx) }
func (Base) OnCompare(ctx *OpContext, next Handler) error  { return next(ctx) }
func (Base) OnExtended(ctx *OpContext, next Handler) error { return next(ctx) }
func (Base) OnAbandon(ctx *OpContext, next Handler) error  { return next(ctx) }

// Chain holds the ordered list of interceptors, Normalization through
// the terminal store adapter.
type Chain struct {
	interceptors []Interceptor
}

// New builds a Chain from interceptors in invocation order. The caller is
// responsible for appending the terminal store adapter last.
func New(interceptors ...Interceptor) *Chain {
	return &Chain{interceptors: interceptors}
}

// Names returns the chain's interceptor names in order, for diagnostics
// and for building bypass sets.
func (c *Chain) Names() []string {
	out := make([]string, len(c.interceptors))
	for i, ic := range c.interceptors {
		out[i] = ic.Name()
	}
	return out
}

// Invoke dispatches ctx through the chain starting at index 0, skipping
// any interceptor named in ctx.Bypass.
func (c *Chain) Invoke(ctx *OpContext) error {
	return c.invoke(0, ctx)
}

func (c *Chain) invoke(i int, ctx *OpContext) error {
	if i >= len(c.interceptors) {
		return nil
	}
	ic := c.interceptors[i]
	next := func(ctx *OpContext) error { return c.invoke(i+1, ctx) }
	if ctx.Bypassed(ic.Name()) {
		return next(ctx)
	}
	switch ctx.Kind {
	case OpBind:
		return ic.OnBind(ctx, next)
	case OpUnbind:
		return ic.OnUnbind(ctx, next)
	case OpAdd:
		return ic.OnAdd(ctx, next)
	case OpModify:
		return ic.OnModify(ctx, next)
	case OpDelete:
		return ic.OnDelete(ctx, next)
	case OpRename:
		return ic.OnRename(ctx, next)
	case OpMove:
		return ic.OnMove(ctx, next)
	case OpSearch:
		return ic.OnSearch(ctx, next)
	case OpLookup:
		return ic.OnLookup(ctx, next)
	case OpCompare:
		return ic.OnCompare(ctx, next)
	case OpExtended:
		return ic.OnExtended(ctx, next)
	case OpAbandon:
		return ic.OnAbandon(ctx, next)
	}
	return next(ctx)
}

// BypassAllExcept builds a bypass set containing every interceptor name in
// the chain except those listed, for an internal operation that must skip
// ACI/schema/etc. recursion, e.g. a password-policy counter update.
func (c *Chain) BypassAllExcept(keep ...string) map[string]bool {
	keepSet := map[string]bool{}
	for _, k := range keep {
		keepSet[k] = true
	}
	bypass := map[string]bool{}
	for _, ic := range c.interceptors {
		if !keepSet[ic.Name()] {
			bypass[ic.Name()] = true
		}
	}
	return bypass
}
