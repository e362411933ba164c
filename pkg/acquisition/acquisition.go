/*
Package acquisition lets a node ask up its ancestor chain for a capability.

If a node needs a database session it acquires it from the first of itself,
its parent, its grandparent and so on that provides one:

	db, err := acquisition.As[*sql.DB](node, domain.CapDBSession)

Only named capabilities can be acquired. Indexed acquisition (by content key)
is deliberately absent so untrusted content names can never be used to probe
ancestor internals.
*/
package acquisition

import (
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/traversal"
)

// Provider is implemented by nodes able to supply capabilities.
// The boolean distinguishes "not provided" from a provided nil/empty value:
// only the former continues the search up the chain.
type Provider interface {
	Provide(c domain.Capability) (any, bool)
}

// Proxy searches a subject and its ancestors for capabilities, memoising each
// capability found. A fresh Proxy should be used per logical access.
type Proxy struct {
	subject domain.Node
	found   map[domain.Capability]any
}

// New creates a proxy starting the search at subject.
func New(subject domain.Node) *Proxy {
	return &Proxy{subject: subject}
}

// Subject returns the node the search starts from.
func (p *Proxy) Subject() domain.Node {
	return p.subject
}

// Resolve returns the value of the first node in the chain providing c.
// It fails with *domain.AcquisitionError when no node provides it.
func (p *Proxy) Resolve(c domain.Capability) (any, error) {
	if v, ok := p.found[c]; ok {
		return v, nil
	}
	for n := range traversal.Chain(p.subject) {
		provider, ok := n.(Provider)
		if !ok {
			continue
		}
		if v, ok := provider.Provide(c); ok {
			if p.found == nil {
				p.found = make(map[domain.Capability]any)
			}
			p.found[c] = v
			return v, nil
		}
	}
	return nil, &domain.AcquisitionError{Capability: c}
}

// Resolve is a shorthand for New(subject).Resolve(c).
func Resolve(subject domain.Node, c domain.Capability) (any, error) {
	return New(subject).Resolve(c)
}

// As acquires c from subject and asserts its type.
// A provided value of the wrong type is reported as not acquired.
func As[T any](subject domain.Node, c domain.Capability) (T, error) {
	return ProxyAs[T](New(subject), c)
}

// ProxyAs is As over an existing proxy.
func ProxyAs[T any](p *Proxy, c domain.Capability) (T, error) {
	var zero T
	v, err := p.Resolve(c)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &domain.AcquisitionError{Capability: c}
	}
	return typed, nil
}
