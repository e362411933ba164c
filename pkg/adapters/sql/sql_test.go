package sql

import (
	"context"
	backend "database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/internal/logging"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/events"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schema = `
CREATE TABLE articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	workflow_state TEXT
);
INSERT INTO articles (title, body, workflow_state) VALUES
	('Go Generics', 'type parameters', 'draft'),
	('Traversal', 'url to object', 'public'),
	('Generic Caches', 'lru', NULL);
`

var articles = &contextplus.RecordType{
	Table:    "articles",
	Fields:   []string{"id", "title", "body", "workflow_state"},
	IDFields: []string{"id"},
}

var articleType = &contextplus.Type{
	Name: "Article",
	Transitions: domain.Transitions{
		"publish": {From: []string{"draft", "unknown"}, To: "public"},
	},
}

func newTestDB(t *testing.T) *backend.DB {
	t.Helper()
	db, err := backend.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func newTestCollection(t *testing.T, opts ...contextplus.SiteOption) (*Collection, *backend.DB) {
	t.Helper()
	db := newTestDB(t)
	opts = append([]contextplus.SiteOption{contextplus.WithDB(db), contextplus.WithLogger(logging.NewNop())}, opts...)
	site := contextplus.NewSite(nil, "site", opts...)
	return NewCollection(nil, articleType, articles, site, "articles"), db
}

func titles(t *testing.T, nodes []domain.Node) []string {
	t.Helper()
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		v, _ := n.(*Item).Value("title")
		out = append(out, v.(string))
	}
	return out
}

func TestCollection_Filter(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)

	tests := []struct {
		name  string
		opts  contextplus.FilterOptions
		want  []string
		total int
	}{
		{
			name:  "all ordered by title",
			opts:  contextplus.FilterOptions{OrderBy: []string{"title"}},
			want:  []string{"Generic Caches", "Go Generics", "Traversal"},
			total: 3,
		},
		{
			name:  "page with true total",
			opts:  contextplus.FilterOptions{OrderBy: []string{"id desc"}, Limit: 1, Offset: 1},
			want:  []string{"Traversal"},
			total: 3,
		},
		{
			name: "sub string ignores case",
			opts: contextplus.FilterOptions{
				Criteria: []contextplus.Criterion{{Type: CriteriaSubString, Field: "title", Value: "GENERIC"}},
				OrderBy:  []string{"id"},
			},
			want:  []string{"Go Generics", "Generic Caches"},
			total: 2,
		},
		{
			name: "filter by",
			opts: contextplus.FilterOptions{
				Criteria: []contextplus.Criterion{{Type: CriteriaFilterBy, Field: "workflow_state", Value: "public"}},
			},
			want:  []string{"Traversal"},
			total: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Filter(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(t, result.Items))
			require.NotNil(t, result.Total)
			assert.Equal(t, tt.total, *result.Total)
		})
	}
}

func TestCollection_FilterRejected(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)

	_, err := c.Filter(ctx, contextplus.FilterOptions{
		Criteria: []contextplus.Criterion{{Type: "fuzzy", Field: "title", Value: "x"}},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCriteria)

	_, err = c.Filter(ctx, contextplus.FilterOptions{OrderBy: []string{"title sideways"}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCriteria)

	_, err = c.Filter(ctx, contextplus.FilterOptions{OrderBy: []string{"password"}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCriteria)
}

func TestCollection_Item(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)

	n, err := c.Item(ctx, "2")
	require.NoError(t, err)
	item := n.(*Item)
	assert.Equal(t, "2", item.Name())
	title, _ := item.Value("title")
	assert.Equal(t, "Traversal", title)
	assert.Equal(t, "Collection of objects of type Article", c.MetaTitle())

	_, err = c.Item(ctx, "99")
	assert.ErrorIs(t, err, domain.ErrTraversalKey)
}

func TestFromID(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)

	_, err := FromID(ctx, articleType, articles, c, "1", map[string]any{"title": "x"})
	assert.ErrorIs(t, err, domain.ErrRecordID)

	item, err := FromID(ctx, articleType, articles, c, "404", map[string]any{"id": 404})
	require.NoError(t, err)
	assert.Nil(t, item)

	item, err = FromID(ctx, articleType, articles, c, "1", map[string]any{"id": 1})
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, map[string]any{"id": int64(1)}, item.ID())
}

func TestItem_EditSaves(t *testing.T) {
	ctx := context.Background()
	c, db := newTestCollection(t)

	n, err := c.Item(ctx, "3")
	require.NoError(t, err)
	item := n.(*Item)

	require.NoError(t, item.Edit(ctx, map[string]any{"body": "least recently used"}))
	assert.Empty(t, item.Dirty())

	var body string
	require.NoError(t, db.QueryRow(`SELECT body FROM articles WHERE id = 3`).Scan(&body))
	assert.Equal(t, "least recently used", body)

	err = item.Edit(ctx, map[string]any{"id": 7})
	assert.ErrorIs(t, err, domain.ErrPrimaryKeyField)
}

func TestItem_WorkflowPersists(t *testing.T) {
	ctx := context.Background()
	c, db := newTestCollection(t)

	n, err := c.Item(ctx, "3")
	require.NoError(t, err)
	item := n.(*Item)

	state, err := item.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWorkflowState, state)

	require.NoError(t, item.PerformAction(ctx, "publish"))

	var stored string
	require.NoError(t, db.QueryRow(`SELECT workflow_state FROM articles WHERE id = 3`).Scan(&stored))
	assert.Equal(t, "public", stored)
}

func TestCollection_Add(t *testing.T) {
	ctx := context.Background()
	var created []domain.Node
	c, _ := newTestCollection(t, contextplus.WithHandlers(events.On(
		func(ctx context.Context, self domain.Node, e *domain.Event) error {
			created = append(created, e.Target())
			return nil
		}, domain.EventCreated)))

	item, err := c.Add(ctx, contextplus.Record{"title": "Fresh"})
	require.NoError(t, err)
	assert.Equal(t, "4", item.Name())
	require.Len(t, created, 1)
	assert.Same(t, item, created[0])

	total, err := c.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	_, err = c.Add(ctx, contextplus.Record{"title": "x", "color": "red"})
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestCollection_DefaultOrderPages(t *testing.T) {
	ctx := context.Background()
	c, db := newTestCollection(t)
	_, err := db.Exec(`INSERT INTO articles (id, title) VALUES (0, 'Zero')`)
	require.NoError(t, err)

	var pages [][]string
	for offset := 0; offset < 4; offset += 2 {
		result, err := c.Filter(ctx, contextplus.FilterOptions{Limit: 2, Offset: offset})
		require.NoError(t, err)
		pages = append(pages, titles(t, result.Items))
	}
	assert.Equal(t, [][]string{{"Zero", "Go Generics"}, {"Traversal", "Generic Caches"}}, pages)

	var names []string
	for child, err := range c.IterChildren(ctx) {
		require.NoError(t, err)
		names = append(names, child.Name())
	}
	assert.Equal(t, []string{"0", "1", "2", "3"}, names)
}

func TestCollection_SubStringIsLiteral(t *testing.T) {
	ctx := context.Background()
	c, db := newTestCollection(t)
	_, err := db.Exec(`INSERT INTO articles (title) VALUES ('50% off'), ('Half 500 off'), ('a_b'), ('axb')`)
	require.NoError(t, err)

	tests := []struct {
		value string
		want  []string
	}{
		{"50%", []string{"50% off"}},
		{"a_b", []string{"a_b"}},
		{"OFF", []string{"50% off", "Half 500 off"}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			result, err := c.Filter(ctx, contextplus.FilterOptions{
				Criteria: []contextplus.Criterion{{Type: CriteriaSubString, Field: "title", Value: tt.value}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(t, result.Items))
		})
	}
}

func TestCollection_ItemWithUnparsableName(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)
	c.IDFromName = func(name string) (map[string]any, error) {
		id, err := strconv.Atoi(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRecordID, err)
		}
		return map[string]any{"id": id}, nil
	}

	_, err := c.Item(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrTraversalKey)

	n, err := c.Item(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", n.Name())
}

func TestCollection_CompositeKeyWithoutParser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	site := contextplus.NewSite(nil, "site", contextplus.WithDB(db), contextplus.WithLogger(logging.NewNop()))
	composite := &contextplus.RecordType{
		Table:    "articles",
		Fields:   articles.Fields,
		IDFields: []string{"id", "title"},
	}
	c := NewCollection(nil, articleType, composite, site, "articles")

	_, err := c.Item(ctx, "1-Go Generics")
	assert.ErrorIs(t, err, domain.ErrTraversalKey)
}

func TestItem_FailedWriteLeavesRecord(t *testing.T) {
	ctx := context.Background()
	var after []string
	c, db := newTestCollection(t, contextplus.WithHandlers(events.On(
		func(ctx context.Context, self domain.Node, e *domain.Event) error {
			after = append(after, e.Name())
			return nil
		}, domain.EventAfterEdit, "workflow-after-publish")))

	n, err := c.Item(ctx, "1")
	require.NoError(t, err)
	item := n.(*Item)
	require.NoError(t, db.Close())

	err = item.PerformAction(ctx, "publish")
	require.Error(t, err)

	state, err := item.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "draft", state)
	v, _ := item.Value("workflow_state")
	assert.Equal(t, "draft", v)

	require.Error(t, item.Edit(ctx, map[string]any{"title": "Renamed"}))
	title, _ := item.Value("title")
	assert.Equal(t, "Go Generics", title)

	assert.Empty(t, item.Dirty())
	assert.Empty(t, after)
}
