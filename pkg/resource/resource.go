/*
Package resource implements named child resources and the resource cache.

A node type declares an ordered list of factories, each producing a child for
a traversal name:

	var siteResources = []resource.Factory{
		resource.Declare("pages", func(owner domain.Node) domain.Node {
			return NewPages(owner)
		}),
	}

Every call produces a new child, so repeated traversals do not accumulate back
references. When an ancestor provides a resource cache, lookups read through
and write through it instead.
*/
package resource

import (
	"iter"

	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/traversal"
)

// FactoryFunc produces a child of owner. Returning nil means "not found".
// Parenting the child is left to the factory.
type FactoryFunc func(owner domain.Node) domain.Node

// Factory associates a resource name with its producer.
type Factory struct {
	Name string
	New  FactoryFunc
}

// Declare creates a Factory.
func Declare(name string, fn FactoryFunc) Factory {
	return Factory{Name: name, New: fn}
}

// Invoke runs the factory for owner. When the produced node has no name and
// can be named, it receives the resource name.
func (f Factory) Invoke(owner domain.Node) domain.Node {
	n := f.New(owner)
	if n == nil {
		return nil
	}
	if n.Name() == "" {
		if namer, ok := n.(domain.Namer); ok {
			namer.SetName(f.Name)
		}
	}
	return n
}

// Find returns the factory declared for name.
func Find(factories []Factory, name string) (Factory, bool) {
	for _, f := range factories {
		if f.Name == name {
			return f, true
		}
	}
	return Factory{}, false
}

// Names returns the declared resource names in declaration order.
func Names(factories []Factory) []string {
	names := make([]string, 0, len(factories))
	for _, f := range factories {
		names = append(names, f.Name)
	}
	return names
}

// Get produces the resource called name, bypassing any cache.
func Get(owner domain.Node, factories []Factory, name string) (domain.Node, bool) {
	f, ok := Find(factories, name)
	if !ok {
		return nil, false
	}
	n := f.Invoke(owner)
	return n, n != nil
}

// All produces every declared resource in declaration order, skipping nil results.
func All(owner domain.Node, factories []Factory) iter.Seq[domain.Node] {
	return func(yield func(domain.Node) bool) {
		for _, f := range factories {
			n := f.Invoke(owner)
			if n == nil {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Lookup is Get reading through and writing through the resource cache acquired
// from owner's chain. Absence of a cache is not an error.
func Lookup(owner domain.Node, factories []Factory, name string) (domain.Node, bool) {
	f, ok := Find(factories, name)
	if !ok {
		return nil, false
	}

	c, err := acquisition.As[*Cache](owner, domain.CapResourceCache)
	if err != nil {
		n := f.Invoke(owner)
		return n, n != nil
	}

	key := traversal.ChildKey(traversal.PathNames(owner), name)
	if n, ok := c.GetKey(key); ok {
		return n, true
	}
	n := f.Invoke(owner)
	if n == nil {
		return nil, false
	}
	c.SetKey(key, n)
	return n, true
}
