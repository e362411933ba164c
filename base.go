package contextplus

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/contextplus/internal/logging"
	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/events"
	"github.com/aretw0/contextplus/pkg/resource"
	"github.com/aretw0/contextplus/pkg/traversal"
	"github.com/aretw0/contextplus/pkg/workflow"
)

// Type describes a kind of node: its titles and the resources, handlers and
// transitions declared for it. A Type is shared by every node of that kind and
// must not be modified once nodes use it.
type Type struct {
	// Name identifies the type in String() output.
	Name string
	// MetaTitle is a human readable title of the kind of node. Defaults to Name.
	MetaTitle   string
	Description string

	// ChildType is the type of a collection's children.
	ChildType *Type

	Resources   []resource.Factory
	Handlers    []events.Registration
	Transitions domain.Transitions
	// DefaultState is reported when storage holds no state. Defaults to "unknown".
	DefaultState string
}

// BaseType is used by nodes initialised without a type.
var BaseType = &Type{Name: "Base"}

func (t *Type) metaTitle() string {
	switch {
	case t.MetaTitle != "":
		return t.MetaTitle
	case t.ChildType != nil:
		return "Collection of objects of type " + t.ChildType.metaTitle()
	case t.Name != "":
		return t.Name
	}
	return "Base"
}

// FallbackState returns the state reported when storage holds none.
func (t *Type) FallbackState() string {
	if t.DefaultState == "" {
		return domain.DefaultWorkflowState
	}
	return t.DefaultState
}

// Node is implemented by every node built on Base.
type Node interface {
	domain.Node
	AsBase() *Base
}

// Base is the composition root of every domain node. Concrete types embed it
// and call Init with themselves so that Base can dispatch to their overrides
// (Item, State, SetState, Info, Edit ...).
type Base struct {
	// This is the outermost node embedding this Base.
	This Node

	typ    *Type
	name   string
	parent domain.Node
	caps   map[domain.Capability]any

	loggerOnce sync.Once
	logger     *slog.Logger

	handlersOnce sync.Once
	handlers     []events.Bound
	extra        []events.Registration
}

// NewBase creates a standalone node of type typ.
func NewBase(typ *Type, parent domain.Node, name string) *Base {
	b := &Base{}
	b.Init(b, typ, parent, name)
	return b
}

// Init sets up b as the base of this. It must be called before the node is used.
func (b *Base) Init(this Node, typ *Type, parent domain.Node, name string) {
	if typ == nil {
		typ = BaseType
	}
	b.This = this
	b.typ = typ
	b.parent = parent
	b.name = name
}

// AsBase returns b.
func (b *Base) AsBase() *Base { return b }

func (b *Base) this() Node {
	if b.This == nil {
		return b
	}
	return b.This
}

// Type returns the type of the node.
func (b *Base) Type() *Type {
	if b.typ == nil {
		return BaseType
	}
	return b.typ
}

// Name returns the traversal name, or "" when not set.
func (b *Base) Name() string { return b.name }

// SetName sets the traversal name. Names may be set after construction when
// they depend on the node's own data.
func (b *Base) SetName(name string) { b.name = name }

// ExternalName returns the name published to traversal consumers.
// It fails with domain.ErrNameNotSet while the node is not placed.
func (b *Base) ExternalName() (string, error) {
	if b.name == "" {
		return "", domain.ErrNameNotSet
	}
	return b.name, nil
}

// Parent returns the parent node, or nil for a root.
func (b *Base) Parent() domain.Node { return b.parent }

// SetParent moves the node under parent.
func (b *Base) SetParent(parent domain.Node) { b.parent = parent }

// MetaTitle returns a human readable title of the kind of node.
func (b *Base) MetaTitle() string { return b.Type().metaTitle() }

// Title returns a human readable title of the node.
func (b *Base) Title() string {
	meta := b.MetaTitle()
	if t, ok := b.this().(interface{ MetaTitle() string }); ok {
		meta = t.MetaTitle()
	}
	if b.name == "" {
		return meta
	}
	return meta + ": " + b.name
}

// Description returns a short description of the node.
func (b *Base) Description() string { return b.Type().Description }

// Info returns a summary of the node for presentation.
// The workflow state is omitted for nodes without workflow support.
func (b *Base) Info(ctx context.Context) (map[string]any, error) {
	this := b.this()
	info := map[string]any{
		"object_name":       b.name,
		"object_title":      b.Title(),
		"object_meta_title": b.MetaTitle(),
	}
	if t, ok := this.(interface{ Title() string }); ok {
		info["object_title"] = t.Title()
	}
	if t, ok := this.(interface{ MetaTitle() string }); ok {
		info["object_meta_title"] = t.MetaTitle()
	}
	if d, ok := this.(interface{ Description() string }); ok {
		info["object_description"] = d.Description()
	}

	state, err := b.storage().State(ctx)
	switch {
	case errors.Is(err, domain.ErrWorkflowNotSupported):
	case err != nil:
		return nil, err
	default:
		info["object_workflow_state"] = state
	}
	return info, nil
}

// String implements fmt.Stringer.
func (b *Base) String() string {
	names := b.Path()
	path := strings.Join(names, "/")
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("<%s object at %s>", b.Type().Name, path)
}

// Path returns the names from the root to the node inclusive.
func (b *Base) Path() []string { return traversal.PathNames(b.this()) }

// PathHash returns a short fingerprint of the path.
func (b *Base) PathHash() string { return traversal.PathHash(b.this()) }

// Root returns the top of the tree.
func (b *Base) Root() domain.Node { return traversal.Root(b.this()) }

// Ancestors yields the parent chain.
func (b *Base) Ancestors() iter.Seq[domain.Node] { return traversal.Ancestors(b.this()) }

// Acquire returns a fresh acquisition proxy starting at the node.
func (b *Base) Acquire() *acquisition.Proxy { return acquisition.New(b.this()) }

// SetCapability makes the node provide v for c to itself and its descendants.
func (b *Base) SetCapability(c domain.Capability, v any) {
	if b.caps == nil {
		b.caps = make(map[domain.Capability]any)
	}
	b.caps[c] = v
}

// Provide implements acquisition.Provider.
func (b *Base) Provide(c domain.Capability) (any, bool) {
	if v, ok := b.caps[c]; ok {
		return v, true
	}
	if c == domain.CapEventHandlers {
		return b.EventHandlers(), true
	}
	return nil, false
}

// Logger returns the logger acquired from the chain, or the package default.
// The result is memoised for the node's lifetime.
func (b *Base) Logger() *slog.Logger {
	b.loggerOnce.Do(func() {
		logger, err := acquisition.As[*slog.Logger](b.this(), domain.CapLogger)
		if err != nil || logger == nil {
			logger = logging.Default()
		}
		b.logger = logger
	})
	return b.logger
}

// AddHandler declares extra handlers on this node only. It has no effect once
// the handler list has been resolved.
func (b *Base) AddHandler(regs ...events.Registration) {
	b.extra = append(b.extra, regs...)
}

// EventHandlers returns the node's resolved handler list: its own handlers
// followed by its ancestors'. It is computed once and never invalidated.
func (b *Base) EventHandlers() []events.Bound {
	b.handlersOnce.Do(func() {
		regs := b.Type().Handlers
		if len(b.extra) > 0 {
			regs = append(append([]events.Registration(nil), regs...), b.extra...)
		}
		b.handlers = events.Resolve(b.this(), regs)
	})
	return b.handlers
}

// Emit dispatches an event targeting the node.
func (b *Base) Emit(ctx context.Context, name string, data map[string]any) error {
	return events.Dispatch(ctx, b.this(), b.EventHandlers(), name, data)
}

// NamedResource returns the resource called name, going through the resource
// cache when an ancestor provides one.
func (b *Base) NamedResource(name string) (domain.Node, bool) {
	return resource.Lookup(b.this(), b.Type().Resources, name)
}

// NamedResources produces every declared resource in declaration order.
func (b *Base) NamedResources() iter.Seq[domain.Node] {
	return resource.All(b.this(), b.Type().Resources)
}

// Item implements traversal.Traverser over the named resources.
func (b *Base) Item(ctx context.Context, key string) (domain.Node, error) {
	if n, ok := b.NamedResource(key); ok {
		return n, nil
	}
	return nil, &domain.TraversalKeyError{Key: key}
}

// Get performs indexed access, returning def when key is not found.
func (b *Base) Get(ctx context.Context, key string, def domain.Node) (domain.Node, error) {
	return traversal.Get(ctx, b.this(), key, def)
}

// State returns the workflow state. Nodes without workflow storage fail with
// domain.ErrWorkflowNotSupported.
func (b *Base) State(ctx context.Context) (string, error) {
	return "", domain.ErrWorkflowNotSupported
}

// SetState writes the workflow state. Nodes without workflow storage fail
// with domain.ErrWorkflowNotSupported so they never accept transitions silently.
func (b *Base) SetState(ctx context.Context, state string) error {
	return domain.ErrWorkflowNotSupported
}

func (b *Base) storage() workflow.Storage {
	if s, ok := b.this().(workflow.Storage); ok {
		return s
	}
	return b
}

// Actions returns the workflow actions available from the current state.
func (b *Base) Actions(ctx context.Context) ([]string, error) {
	state, err := b.storage().State(ctx)
	if err != nil {
		return nil, err
	}
	return b.Type().Transitions.Actions(state), nil
}

// PerformAction runs a workflow action declared on the node's type.
func (b *Base) PerformAction(ctx context.Context, action string) error {
	subject, ok := b.this().(workflow.Subject)
	if !ok {
		subject = b
	}
	return workflow.Perform(ctx, subject, b.Type().Transitions, action)
}
