package contextplus_test

import (
	"context"
	"testing"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var articleRecord = &contextplus.RecordType{
	Table:    "articles",
	Fields:   []string{"id", "title", "body", "workflow_state"},
	IDFields: []string{"id"},
}

func newArticle(rec *recorder) *contextplus.RecordItem {
	typ := &contextplus.Type{
		Name:        "Article",
		Transitions: pageTransitions,
		Handlers: []events.Registration{
			events.On(rec.handler("article"), domain.EventBeforeEdit, domain.EventAfterEdit),
		},
	}
	return contextplus.NewRecordItem(typ, articleRecord, nil, "1", contextplus.Record{
		"id":    1,
		"title": "Hello",
		"body":  "",
	})
}

func TestRecordItem_ID(t *testing.T) {
	a := newArticle(&recorder{})
	assert.Equal(t, map[string]any{"id": 1}, a.ID())
}

func TestRecordItem_Edit(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	a := newArticle(rec)

	require.NoError(t, a.Edit(ctx, map[string]any{"title": "Hello", "body": "World"}))

	v, _ := a.Value("body")
	assert.Equal(t, "World", v)
	assert.Equal(t, []string{"article:before-edit", "article:after-edit"}, rec.calls)
	assert.Equal(t, []string{"body"}, rec.data[0][contextplus.KeyChanges])
	assert.Equal(t, map[string]any{"title": "Hello", "body": "World"}, rec.data[0][contextplus.KeyKwargs])
	assert.Equal(t, []string{"body"}, a.Dirty())

	a.ClearDirty()
	assert.Empty(t, a.Dirty())
}

func TestRecordItem_EditRejected(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		changes map[string]any
		reason  error
	}{
		{"protected field", map[string]any{"_secret": 1}, domain.ErrProtectedField},
		{"primary key", map[string]any{"id": 2}, domain.ErrPrimaryKeyField},
		{"unknown field", map[string]any{"author": "me"}, domain.ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			a := newArticle(rec)

			changes := map[string]any{"title": "Changed"}
			for k, v := range tt.changes {
				changes[k] = v
			}
			err := a.Edit(ctx, changes)
			assert.ErrorIs(t, err, tt.reason)
			assert.ErrorIs(t, err, domain.ErrRecordUpdate)

			title, _ := a.Value("title")
			assert.Equal(t, "Hello", title, "no field may be written when validation fails")
			assert.Empty(t, rec.calls)
		})
	}
}

func TestRecordItem_Workflow(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	a := newArticle(rec)

	state, err := a.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWorkflowState, state)

	require.NoError(t, a.Edit(ctx, map[string]any{"workflow_state": "draft"}))
	require.NoError(t, a.PerformAction(ctx, "publish"))

	v, _ := a.Value("workflow_state")
	assert.Equal(t, "public", v)
	assert.Equal(t, []string{"workflow_state"}, a.Dirty())
}

func TestRecordItem_Decode(t *testing.T) {
	a := newArticle(&recorder{})

	var out struct {
		ID    int    `mapstructure:"id"`
		Title string `mapstructure:"title"`
	}
	require.NoError(t, a.Decode(&out))
	assert.Equal(t, 1, out.ID)
	assert.Equal(t, "Hello", out.Title)
}
