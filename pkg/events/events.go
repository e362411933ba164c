/*
Package events lets nodes emit named events to handlers declared on themselves
and on their ancestors.

Handlers are declared per node type as an ordered list of registrations:

	var pageHandlers = []events.Registration{
		events.On(onSave, "save"),
		events.OnPriority(1, audit), // matches every event
	}

Dispatch is synchronous. A handler error aborts the remaining handlers and is
returned to the emitter.
*/
package events

import (
	"cmp"
	"context"
	"slices"

	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/domain"
)

// HandlerFunc handles an event on behalf of self, the node that declared it.
type HandlerFunc func(ctx context.Context, self domain.Node, e *domain.Event) error

// Registration declares a handler on a node type.
type Registration struct {
	// Names restricts the events handled. Nil matches every event.
	Names []string
	// Priority orders prioritised handlers ascending. Nil means unprioritised.
	Priority *int
	Handler  HandlerFunc
}

// On declares an unprioritised handler for the given event names (none = all).
func On(handler HandlerFunc, names ...string) Registration {
	return Registration{Names: namesOrAll(names), Handler: handler}
}

// OnPriority declares a prioritised handler for the given event names (none = all).
func OnPriority(priority int, handler HandlerFunc, names ...string) Registration {
	return Registration{Names: namesOrAll(names), Priority: &priority, Handler: handler}
}

func namesOrAll(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	return names
}

// Match reports whether the registration handles e.
func (r Registration) Match(e *domain.Event) bool {
	if r.Names == nil {
		return true
	}
	return slices.Contains(r.Names, e.Name())
}

// Bound is a registration bound to the node that declared it.
type Bound struct {
	Registration
	Self domain.Node
}

// Call invokes the handler for e.
func (b Bound) Call(ctx context.Context, e *domain.Event) error {
	return b.Handler(ctx, b.Self, e)
}

// Resolve computes the handler list of self: its prioritised registrations
// sorted ascending, then its unprioritised ones in declaration order, then the
// handler list acquired from its parent. A missing parent list is treated as empty.
func Resolve(self domain.Node, registrations []Registration) []Bound {
	var ordered, unordered []Bound
	for _, r := range registrations {
		b := Bound{Registration: r, Self: self}
		if r.Priority != nil {
			ordered = append(ordered, b)
		} else {
			unordered = append(unordered, b)
		}
	}
	slices.SortStableFunc(ordered, func(a, b Bound) int {
		return cmp.Compare(*a.Priority, *b.Priority)
	})

	var inherited []Bound
	if parent := self.Parent(); parent != nil {
		if list, err := acquisition.As[[]Bound](parent, domain.CapEventHandlers); err == nil {
			inherited = list
		}
	}

	handlers := make([]Bound, 0, len(ordered)+len(unordered)+len(inherited))
	handlers = append(handlers, ordered...)
	handlers = append(handlers, unordered...)
	handlers = append(handlers, inherited...)
	return handlers
}

// Dispatch builds an event for target and invokes every matching handler in order.
func Dispatch(ctx context.Context, target domain.Node, handlers []Bound, name string, data map[string]any) error {
	e := domain.NewEvent(target, name, data)
	for _, h := range handlers {
		if !h.Match(e) {
			continue
		}
		if err := h.Call(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Emitter is implemented by nodes able to emit events.
type Emitter interface {
	Emit(ctx context.Context, name string, data map[string]any) error
}
