// Package tracing records what happens inside the translation pipeline.
package tracing

import (
	"github.com/rs/xid"
	"github.com/sarchlab/memsim/hooking"
	"github.com/sarchlab/memsim/translation"
	"github.com/sarchlab/memsim/vm"
)

// NamedHookable represents something both have a name and can be hooked
type NamedHookable interface {
	hooking.Hookable
	Name() string
}

// Event is one traced occurrence. Index is -1 for events raised by components
// that do not know which reference they serve, such as the TLB.
type Event struct {
	ID      string
	Index   int
	Kind    string
	Where   string
	Page    vm.PageNumber
	Frame   vm.FrameIndex
	Address uint32
}

// EventFromHookCtx converts a hook invocation into an Event. It returns false
// if the item is not something that can be traced.
func EventFromHookCtx(ctx hooking.HookCtx) (Event, bool) {
	evt := Event{
		ID:    xid.New().String(),
		Index: -1,
		Frame: vm.NoFrame,
	}

	if ctx.Pos != nil {
		evt.Kind = ctx.Pos.Name
	}

	if named, ok := ctx.Domain.(interface{ Name() string }); ok {
		evt.Where = named.Name()
	}

	switch item := ctx.Item.(type) {
	case translation.Result:
		evt.Index = item.Index
		evt.Page = item.Page
		evt.Frame = item.Frame
		evt.Address = item.Address
	case translation.PageEvent:
		evt.Index = item.Index
		evt.Page = item.Page
		evt.Frame = item.Frame
	case vm.PageNumber:
		evt.Page = item
		if frame, ok := ctx.Detail.(vm.FrameIndex); ok {
			evt.Frame = frame
		}
	default:
		return Event{}, false
	}

	return evt, true
}

// CollectTrace lets the tracer trace the domain.
func CollectTrace(domain NamedHookable, tracer hooking.Hook) {
	domain.AcceptHook(tracer)
}
