/*
Package contextplus is a toolkit for tree-structured domain objects resolved by
URL traversal.

Every object in the tree is a node with a name and a parent. A node can:

  - acquire capabilities (logger, database handle, caches) from its ancestors,
  - expose named child resources produced on demand,
  - emit events to handlers declared on itself and on its ancestors,
  - perform workflow actions declared in a transition table.

# Concept

Concrete node types embed [Base] and describe themselves with a [Type]: the
resources they expose, the handlers they declare and the transitions they
accept. The root of a tree is usually a [Site], which provides the
capabilities every descendant acquires.

# Usage

	var pageType = &contextplus.Type{
		Name: "Page",
		Transitions: domain.Transitions{
			"publish": {From: []string{"draft", "private"}, To: "public"},
		},
	}

	type Page struct {
		contextplus.Base
		state *workflow.Memory
	}

	func NewPage(parent domain.Node, name string) *Page {
		p := &Page{state: workflow.NewMemory("draft", "")}
		p.Init(p, pageType, parent, name)
		return p
	}

	func (p *Page) State(ctx context.Context) (string, error) { return p.state.State(ctx) }
	func (p *Page) SetState(ctx context.Context, s string) error { return p.state.SetState(ctx, s) }

	site := contextplus.NewSite(nil, "site", contextplus.WithResourceCache(resource.NewCache(0)))
	page := NewPage(site, "home")
	err := page.PerformAction(ctx, "publish")

# Error Handling

Errors are typed and wrap the sentinels of the domain package, so callers can
map them without string matching:

	if errors.Is(err, domain.ErrWorkflowIllegalTransition) {
		// 409
	}
*/
package contextplus
