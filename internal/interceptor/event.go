package interceptor

import (
	"time"

	"github.com/oba-directory/obad/internal/dn"
)

// ChangeEvent describes one committed directory mutation, published by the
// Event stage after the operation succeeds.
type ChangeEvent struct {
	Kind OpKind
	DN   dn.DN
	At   time.Time
}

// Event is the chain's twelfth stage: publish a ChangeEvent to every
// subscriber once an Add/Modify/Delete/Rename/Move has committed. Delivery
// is best-effort and non-blocking - a slow subscriber drops events rather
// than stalling the directory - since subscribers have no acknowledgement
// channel to backpressure on.
type Event struct {
	Base
	Now func() time.Time

	subscribers []chan ChangeEvent
}

func NewEvent() *Event { return &Event{} }

func (e *Event) Name() string { return "Event" }

// Subscribe registers a new subscriber and returns its channel. Buffered
// to absorb a burst without a subscriber actively draining it.
func (e *Event) Subscribe() <-chan ChangeEvent {
	ch := make(chan ChangeEvent, 64)
	e.subscribers = append(e.subscribers, ch)
	return ch
}

func (e *Event) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Event) publish(kind OpKind, d dn.DN) {
	evt := ChangeEvent{Kind: kind, DN: d, At: e.now()}
	for _, ch := range e.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (e *Event) OnAdd(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	e.publish(OpAdd, ctx.DN)
	return nil
}

func (e *Event) OnModify(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	e.publish(OpModify, ctx.DN)
	return nil
}

func (e *Event) OnDelete(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	e.publish(OpDelete, ctx.DN)
	return nil
}

func (e *Event) OnRename(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	e.publish(OpRename, ctx.DN)
	return nil
}

func (e *Event) OnMove(ctx *OpContext, next Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	e.publish(OpMove, ctx.DN)
	return nil
}
