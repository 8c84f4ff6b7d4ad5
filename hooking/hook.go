// Package hooking lets tracers, recorders and the monitor watch the
// translation pipeline. Components raise events at named positions and every
// hook registered on the component sees them in registration order.
package hooking

import "fmt"

// HookPos names a point where a component raises events, such as a TLB hit or
// a page fault. Positions are compared by identity.
type HookPos struct {
	Name string
}

// HookCtx describes one event.
type HookCtx struct {
	// Domain is the component that raised the event.
	Domain Hookable

	// Pos is where in the component the event happened.
	Pos *HookPos

	// Item is the main payload. Each position documents its type.
	Item interface{}

	// Detail carries extra data for the position, or nil.
	Detail interface{}
}

// Hookable is a component that hooks can be attached to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// Hook receives the events of the components it is attached to. Func runs
// synchronously inside the component and must not call back into it.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc turns a function into a Hook. The same function can be attached
// more than once.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase implements Hookable. Embed it and call InvokeHook to raise
// events.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns the number of attached hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns the attached hooks in registration order.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook attaches a hook. Attaching the same hook value twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	if h.isAttached(hook) {
		panic(fmt.Sprintf("hook %T is already attached", hook))
	}

	h.hookList = append(h.hookList, hook)
}

func (h *HookableBase) isAttached(hook Hook) bool {
	if _, isFunc := hook.(HookFunc); isFunc {
		return false
	}

	for _, attached := range h.hookList {
		if attached == hook {
			return true
		}
	}

	return false
}

// InvokeHook passes ctx to every attached hook.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}
