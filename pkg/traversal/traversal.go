// Package traversal provides the path utilities and indexed lookup contract used
// to resolve URLs against a tree of domain nodes.
package traversal

import (
	"context"
	"errors"
	"fmt"
	"hash/adler32"
	"iter"
	"slices"
	"strconv"

	"github.com/aretw0/contextplus/pkg/domain"
)

// Traverser is implemented by nodes supporting indexed access (node[key]).
// Item returns a *domain.TraversalKeyError when nothing matches key.
type Traverser interface {
	Item(ctx context.Context, key string) (domain.Node, error)
}

// Ancestors yields the parent of n, then its parent, until the root.
// The parent chain must be acyclic.
func Ancestors(n domain.Node) iter.Seq[domain.Node] {
	return func(yield func(domain.Node) bool) {
		if n == nil {
			return
		}
		for cur := n.Parent(); cur != nil; cur = cur.Parent() {
			if !yield(cur) {
				return
			}
		}
	}
}

// Chain yields n followed by its ancestors.
func Chain(n domain.Node) iter.Seq[domain.Node] {
	return func(yield func(domain.Node) bool) {
		if n == nil || !yield(n) {
			return
		}
		for a := range Ancestors(n) {
			if !yield(a) {
				return
			}
		}
	}
}

// PathNames returns the names from the root to n inclusive. Unset names are "".
func PathNames(n domain.Node) []string {
	var names []string
	for cur := range Chain(n) {
		names = append(names, cur.Name())
	}
	slices.Reverse(names)
	return names
}

// Key returns the canonical string form of a path, usable as a map or cache key.
func Key(names []string) string {
	buf := make([]byte, 0, 16*len(names))
	buf = append(buf, '(')
	for i, name := range names {
		if i > 0 {
			buf = append(buf, ',', ' ')
		}
		buf = strconv.AppendQuote(buf, name)
	}
	buf = append(buf, ')')
	return string(buf)
}

// ChildKey returns the key of the child called name under the path names.
func ChildKey(names []string, name string) string {
	return Key(append(slices.Clone(names), name))
}

// PathHash returns a short fingerprint of n's path, useful for namespacing cache keys.
func PathHash(n domain.Node) string {
	sum := adler32.Checksum([]byte(Key(PathNames(n))))
	return strconv.FormatUint(uint64(sum), 16)
}

// Root returns the last ancestor of n, or n itself when it has no parent.
func Root(n domain.Node) domain.Node {
	highest := n
	for a := range Ancestors(n) {
		highest = a
	}
	return highest
}

// Get performs indexed access on n, returning def when the key is not found.
// Errors other than a traversal key error are returned unchanged.
func Get(ctx context.Context, n domain.Node, key string, def domain.Node) (domain.Node, error) {
	t, ok := n.(Traverser)
	if !ok {
		return def, nil
	}
	item, err := t.Item(ctx, key)
	if errors.Is(err, domain.ErrTraversalKey) {
		return def, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Resolve walks segments from root through indexed access.
// Empty segments are skipped.
func Resolve(ctx context.Context, root domain.Node, segments []string) (domain.Node, error) {
	cur := root
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		t, ok := cur.(Traverser)
		if !ok {
			return nil, &domain.TraversalKeyError{Key: segment}
		}
		next, err := t.Item(ctx, segment)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", segment, err)
		}
		cur = next
	}
	return cur, nil
}
