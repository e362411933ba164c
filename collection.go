package contextplus

import (
	"context"
	"errors"
	"iter"

	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/resource"
	"github.com/aretw0/contextplus/pkg/traversal"
)

// ChildIterator is implemented by collections able to enumerate their children.
// The sequence is restartable: every call starts a new enumeration. An error
// is yielded at most once, as the last element.
type ChildIterator interface {
	IterChildren(ctx context.Context) iter.Seq2[domain.Node, error]
}

// ChildGetter is implemented by collections able to look up one child by name.
// A missing child is reported as a nil node and a nil error.
type ChildGetter interface {
	Child(ctx context.Context, name string) (domain.Node, error)
}

// Criterion is one filter condition. Its meaning is up to the collection.
type Criterion struct {
	Type  string
	Field string
	Value any
}

// FilterOptions selects a window of a collection's children.
type FilterOptions struct {
	Criteria []Criterion
	OrderBy  []string
	// Limit caps the number of items. Zero means no limit.
	Limit  int
	Offset int
}

// FilterResult is a window of children. Total is nil when unknown.
type FilterResult struct {
	Total *int
	Items []domain.Node
}

// Filterer is implemented by collections supporting Filter.
type Filterer interface {
	Filter(ctx context.Context, opts FilterOptions) (FilterResult, error)
}

// Collection is a node whose children are traversed by name. By default it is
// empty and refuses enumeration; concrete collections override IterChildren
// and optionally Child and Filter.
type Collection struct {
	Base
}

// NewCollection creates a standalone collection.
func NewCollection(typ *Type, parent domain.Node, name string) *Collection {
	c := &Collection{}
	c.Init(c, typ, parent, name)
	return c
}

// IterChildren fails with domain.ErrCollectionNotListable.
func (c *Collection) IterChildren(ctx context.Context) iter.Seq2[domain.Node, error] {
	return func(yield func(domain.Node, error) bool) {
		yield(nil, domain.ErrCollectionNotListable)
	}
}

func (c *Collection) children(ctx context.Context) iter.Seq2[domain.Node, error] {
	if it, ok := c.this().(ChildIterator); ok {
		return it.IterChildren(ctx)
	}
	return c.IterChildren(ctx)
}

// Child searches the children for name.
func (c *Collection) Child(ctx context.Context, name string) (domain.Node, error) {
	for child, err := range c.children(ctx) {
		if err != nil {
			return nil, err
		}
		if child.Name() == name {
			return child, nil
		}
	}
	return nil, nil
}

// GetChild returns the child called name, or def when there is none.
func (c *Collection) GetChild(ctx context.Context, name string, def domain.Node) (domain.Node, error) {
	child, err := c.child(ctx, name)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return def, nil
	}
	return child, nil
}

func (c *Collection) child(ctx context.Context, name string) (domain.Node, error) {
	if g, ok := c.this().(ChildGetter); ok {
		return g.Child(ctx, name)
	}
	return c.Child(ctx, name)
}

// Filter returns a window of the children.
//
// Criteria are not supported. Total is only set when the window reaches the
// end of the children while paging: a window that ends exactly on the last
// child, or a request without a limit, leaves it nil.
func (c *Collection) Filter(ctx context.Context, opts FilterOptions) (FilterResult, error) {
	if len(opts.Criteria) > 0 {
		return FilterResult{}, &domain.UnsupportedCriteriaError{Type: opts.Criteria[0].Type}
	}

	next, stop := iter.Pull2(c.children(ctx))
	defer stop()

	var result FilterResult
	count := 0
	exhausted := func() {
		total := count
		result.Total = &total
	}

	for range opts.Offset {
		_, err, ok := next()
		if !ok {
			exhausted()
			break
		}
		if err != nil {
			return FilterResult{}, err
		}
		count++
	}

	if opts.Limit <= 0 {
		for {
			child, err, ok := next()
			if !ok {
				break
			}
			if err != nil {
				return FilterResult{}, err
			}
			result.Items = append(result.Items, child)
		}
		return result, nil
	}

	for range opts.Limit {
		child, err, ok := next()
		if !ok {
			exhausted()
			break
		}
		if err != nil {
			return FilterResult{}, err
		}
		result.Items = append(result.Items, child)
		count++
	}
	return result, nil
}

// Item looks key up in the named resources, then the resource cache, then the
// children. A child found that way is saved in the resource cache when an
// ancestor provides one.
func (c *Collection) Item(ctx context.Context, key string) (domain.Node, error) {
	if n, ok := c.NamedResource(key); ok {
		return n, nil
	}

	rc, err := acquisition.As[*resource.Cache](c.this(), domain.CapResourceCache)
	if err == nil {
		if n, ok := rc.GetKey(traversal.ChildKey(c.Path(), key)); ok {
			return n, nil
		}
	}

	child, err := c.child(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrCollectionNotListable) {
		return nil, err
	}
	if child == nil {
		return nil, &domain.TraversalKeyError{Key: key}
	}
	if rc != nil {
		rc.Save(child)
	}
	return child, nil
}
