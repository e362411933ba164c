package contextplus_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/internal/logging"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/events"
	"github.com/aretw0/contextplus/pkg/resource"
	"github.com/aretw0/contextplus/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pageTransitions = domain.Transitions{
	"publish": {From: []string{"draft", "private"}, To: "public"},
	"retract": {From: []string{"public"}, To: "private"},
}

// page is a node keeping its workflow state in memory.
type page struct {
	contextplus.Base
	state *workflow.Memory
}

func newPage(typ *contextplus.Type, parent domain.Node, name, state string) *page {
	p := &page{state: workflow.NewMemory(state, "")}
	p.Init(p, typ, parent, name)
	return p
}

func (p *page) State(ctx context.Context) (string, error)       { return p.state.State(ctx) }
func (p *page) SetState(ctx context.Context, state string) error { return p.state.SetState(ctx, state) }

// recorder collects the names of the handlers called.
type recorder struct {
	calls []string
	data  []map[string]any
}

func (r *recorder) handler(label string) events.HandlerFunc {
	return func(ctx context.Context, self domain.Node, e *domain.Event) error {
		r.calls = append(r.calls, label+":"+e.Name())
		r.data = append(r.data, e.Data())
		return nil
	}
}

func TestBase_Identity(t *testing.T) {
	site := contextplus.NewSite(nil, "")
	mid := contextplus.NewBase(&contextplus.Type{Name: "Folder"}, site, "mid")
	leaf := contextplus.NewBase(&contextplus.Type{Name: "Doc", MetaTitle: "Document"}, mid, "leaf")

	assert.Equal(t, []string{"", "mid", "leaf"}, leaf.Path())
	assert.Same(t, site, leaf.Root())
	assert.Equal(t, []string{""}, site.Path())
	assert.Equal(t, "Document: leaf", leaf.Title())
	assert.Equal(t, "Site", site.Title())
	assert.Equal(t, "<Doc object at /mid/leaf>", leaf.String())
	assert.Equal(t, "<Site object at />", site.String())
	assert.NotEmpty(t, leaf.PathHash())
	assert.NotEqual(t, leaf.PathHash(), mid.PathHash())

	var ancestors []domain.Node
	for a := range leaf.Ancestors() {
		ancestors = append(ancestors, a)
	}
	assert.Equal(t, []domain.Node{mid, site}, ancestors)
}

func TestBase_ExternalName(t *testing.T) {
	n := contextplus.NewBase(nil, nil, "")
	_, err := n.ExternalName()
	assert.ErrorIs(t, err, domain.ErrNameNotSet)

	n.SetName("placed")
	name, err := n.ExternalName()
	require.NoError(t, err)
	assert.Equal(t, "placed", name)
}

func TestBase_Info(t *testing.T) {
	ctx := context.Background()
	typ := &contextplus.Type{Name: "Page", Description: "A page", Transitions: pageTransitions}

	p := newPage(typ, nil, "home", "draft")
	info, err := p.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"object_name":           "home",
		"object_title":          "Page: home",
		"object_meta_title":     "Page",
		"object_description":    "A page",
		"object_workflow_state": "draft",
	}, info)

	plain := contextplus.NewBase(typ, nil, "plain")
	info, err = plain.Info(ctx)
	require.NoError(t, err)
	assert.NotContains(t, info, "object_workflow_state")
}

func TestBase_AcquireFromSite(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo)
	site := contextplus.NewSite(nil, "site", contextplus.WithLogger(logger))
	leaf := contextplus.NewBase(nil, contextplus.NewBase(nil, site, "mid"), "leaf")

	assert.Same(t, logger, leaf.Logger())

	settings, err := leaf.Acquire().Resolve(domain.CapSettings)
	require.NoError(t, err)
	assert.Equal(t, "site", settings.(contextplus.Settings).Name)

	_, err = leaf.Acquire().Resolve(domain.CapDBSession)
	var acqErr *domain.AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, domain.CapDBSession, acqErr.Capability)
}

func TestBase_LoggerDefault(t *testing.T) {
	n := contextplus.NewBase(nil, nil, "orphan")
	assert.Same(t, logging.Default(), n.Logger())
}

func TestBase_NamedResources(t *testing.T) {
	ctx := context.Background()
	typ := &contextplus.Type{
		Name: "Folder",
		Resources: []resource.Factory{
			resource.Declare("foo", func(owner domain.Node) domain.Node {
				return contextplus.NewBase(nil, owner, "")
			}),
			resource.Declare("bar", func(owner domain.Node) domain.Node {
				return contextplus.NewBase(nil, owner, "")
			}),
		},
	}
	folder := contextplus.NewBase(typ, nil, "folder")

	foo, err := folder.Item(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", foo.Name())
	assert.Same(t, folder, foo.Parent())

	bar, err := folder.Item(ctx, "bar")
	require.NoError(t, err)
	assert.Equal(t, "bar", bar.Name())

	_, err = folder.Item(ctx, "missing")
	var keyErr *domain.TraversalKeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "missing", keyErr.Key)

	var names []string
	for n := range folder.NamedResources() {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"foo", "bar"}, names)
}

func TestBase_EventOrder(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	site := contextplus.NewSite(nil, "site", contextplus.WithHandlers(
		events.OnPriority(-10, rec.handler("HA")),
	))
	typ := &contextplus.Type{
		Name: "Page",
		Handlers: []events.Registration{
			events.On(rec.handler("H2")),
			events.OnPriority(1, rec.handler("H1")),
			events.On(rec.handler("H3"), "save"),
			events.On(rec.handler("never"), "delete"),
		},
	}
	p := newPage(typ, site, "home", "")

	require.NoError(t, p.Emit(ctx, "save", nil))
	assert.Equal(t, []string{"H1:save", "H2:save", "H3:save", "HA:save"}, rec.calls)

	rec.calls = nil
	require.NoError(t, p.Emit(ctx, "nothing-listens", nil))
	assert.Equal(t, []string{"H1:nothing-listens", "H2:nothing-listens", "HA:nothing-listens"}, rec.calls)
}

func TestBase_EmitAbortsOnError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	rec := &recorder{}
	typ := &contextplus.Type{
		Name: "Page",
		Handlers: []events.Registration{
			events.On(func(context.Context, domain.Node, *domain.Event) error { return boom }),
			events.On(rec.handler("after")),
		},
	}
	p := newPage(typ, nil, "home", "")

	assert.ErrorIs(t, p.Emit(ctx, "save", nil), boom)
	assert.Empty(t, rec.calls)
}

func TestBase_PerformAction(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	site := contextplus.NewSite(nil, "site", contextplus.WithLogger(logging.NewNop()), contextplus.WithHandlers(
		events.On(rec.handler("site"), "workflow-before-publish", "workflow-after-publish"),
	))
	typ := &contextplus.Type{Name: "Page", Transitions: pageTransitions}
	p := newPage(typ, site, "home", "private")

	require.NoError(t, p.PerformAction(ctx, "publish"))

	state, err := p.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "public", state)

	assert.Equal(t, []string{"site:workflow-before-publish", "site:workflow-after-publish"}, rec.calls)
	want := map[string]any{"action": "publish", "from_state": "private", "to_state": "public"}
	assert.Equal(t, want, rec.data[0])
	assert.Equal(t, want, rec.data[1])

	actions, err := p.Actions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"retract"}, actions)

	err = p.PerformAction(ctx, "publish")
	assert.ErrorIs(t, err, domain.ErrWorkflowIllegalTransition)
	var wfErr *domain.WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, "public", wfErr.State)
	assert.Equal(t, "Page: home", wfErr.Object)

	assert.ErrorIs(t, p.PerformAction(ctx, "archive"), domain.ErrWorkflowUnknownAction)
}

func TestBase_PerformActionWithoutStorage(t *testing.T) {
	ctx := context.Background()
	typ := &contextplus.Type{
		Name:         "Static",
		Transitions:  domain.Transitions{"publish": {From: []string{"unknown"}, To: "public"}},
		DefaultState: "unknown",
	}
	n := contextplus.NewBase(typ, nil, "static")

	err := n.PerformAction(ctx, "publish")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotSupported)
}
