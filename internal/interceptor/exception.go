package interceptor

import "github.com/oba-directory/obad/internal/obaerr"

// Exception is the chain's seventh stage: the single point that
// translates whatever error surfaces from downstream (Schema,
// OperationalAttribute, Subentry, Collective, Event, Trigger, the
// terminal store adapter) into the obaerr taxonomy. Every one of those
// layers already returns a typed *obaerr.Error, so in the common case
// this stage is a pass-through; it exists to guarantee the invariant
// holds even if a future participant returns a bare error (e.g. an I/O
// failure bubbling out of a WAL write).
type Exception struct{ Base }

func NewException() *Exception { return &Exception{} }

func (e *Exception) Name() string { return "Exception" }

func wrapUnknown(op string, err error) error {
	if err == nil {
		return nil
	}
	if obaerr.KindOf(err) != obaerr.KindUnknown {
		return err
	}
	if _, ok := err.(*obaerr.Error); ok {
		return err
	}
	return obaerr.Wrap(obaerr.KindUnknown, op, "", err)
}

func (e *Exception) OnBind(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Bind", next(ctx))
}
func (e *Exception) OnUnbind(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Unbind", next(ctx))
}
func (e *Exception) OnAdd(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Add", next(ctx))
}
func (e *Exception) OnModify(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Modify", next(ctx))
}
func (e *Exception) OnDelete(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Delete", next(ctx))
}
func (e *Exception) OnRename(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Rename", next(ctx))
}
func (e *Exception) OnMove(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Move", next(ctx))
}
func (e *Exception) OnSearch(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Search", next(ctx))
}
func (e *Exception) OnLookup(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Lookup", next(ctx))
}
func (e *Exception) OnCompare(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Compare", next(ctx))
}
func (e *Exception) OnExtended(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Extended", next(ctx))
}
func (e *Exception) OnAbandon(ctx *OpContext, next Handler) error {
	return wrapUnknown("Exception.Abandon", next(ctx))
}
