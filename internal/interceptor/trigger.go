package interceptor

import "github.com/oba-directory/obad/internal/dn"

// TriggerAction is a registered stored procedure: an arbitrary function
// invoked after a matching operation commits. It receives the context the
// operation ran with so it can inspect the DN, mods, and result.
type TriggerAction func(ctx *OpContext) error

// TriggerSpec binds a TriggerAction to the operation kinds and subtree it
// applies to.
type TriggerSpec struct {
	Name   string
	Kinds  map[OpKind]bool
	Base   dn.DN // matches Base and its whole subtree
	Action TriggerAction
}

func matchesKind(spec *TriggerSpec, kind OpKind) bool {
	if len(spec.Kinds) == 0 {
		return true
	}
	return spec.Kinds[kind]
}

// Trigger is the chain's thirteenth stage: invoke every registered
// TriggerSpec whose operation kind and subtree match, once the operation
// has committed. A trigger's error is reported through OnError rather
// than failing the already-committed operation: triggers are post-commit
// stored procedures, not validation gates.
type Trigger struct {
	Base
	specs   []*TriggerSpec
	OnError func(spec *TriggerSpec, err error)
}

func NewTrigger() *Trigger { return &Trigger{} }

func (t *Trigger) Name() string { return "Trigger" }

func (t *Trigger) Register(spec *TriggerSpec) { t.specs = append(t.specs, spec) }

func (t *Trigger) fire(kind OpKind, ctx *OpContext) {
	for _, spec := range t.specs {
		if !matchesKind(spec, kind) {
			continue
		}
		if !spec.Base.IsRoot() && !spec.Base.AncestorOf(ctx.DN, nil) && !spec.Base.Equal(ctx.DN, nil) {
			continue
		}
		if err := spec.Action(ctx); err != nil && t.OnError != nil {
			t.OnError(spec, err)
		}
	}
}

func (t *Trigger) OnAdd(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	t.fire(OpAdd, ctx)
	return nil
}

func (t *Trigger) OnModify(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	t.fire(OpModify, ctx)
	return nil
}

func (t *Trigger) OnDelete(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	t.fire(OpDelete, ctx)
	return nil
}

func (t *Trigger) OnRename(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	t.fire(OpRename, ctx)
	return nil
}

func (t *Trigger) OnMove(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	t.fire(OpMove, ctx)
	return nil
}
