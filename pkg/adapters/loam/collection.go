// Package loam exposes a directory of markdown/JSON/YAML documents, read
// through a loam repository, as a traversable collection.
package loam

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/ports"
	"github.com/aretw0/loam"
)

// DocumentType is the type of documents.
var DocumentType = &contextplus.Type{Name: "Document"}

// CollectionType is the type of document collections.
var CollectionType = &contextplus.Type{Name: "Documents", ChildType: DocumentType}

// Document is a node backed by one loam document. The files are never
// written: a workflow state set on a document goes to the state store
// acquired from its ancestors and shadows the frontmatter state.
type Document struct {
	contextplus.Base

	Meta    DocumentMetadata
	Content string
}

// State implements workflow.Storage.
func (d *Document) State(ctx context.Context) (string, error) {
	if store, err := acquisition.As[ports.StateStore](d, domain.CapStateStore); err == nil {
		state, err := store.Load(ctx, d.stateKey())
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, domain.ErrStateNotFound) {
			return "", err
		}
	}
	if d.Meta.WorkflowState != "" {
		return d.Meta.WorkflowState, nil
	}
	return d.Type().FallbackState(), nil
}

// SetState implements workflow.Storage. It needs a state store.
func (d *Document) SetState(ctx context.Context, state string) error {
	store, err := acquisition.As[ports.StateStore](d, domain.CapStateStore)
	if err != nil {
		return err
	}
	return store.Save(ctx, d.stateKey(), state)
}

func (d *Document) stateKey() string {
	return "loam:" + strings.Join(d.Path(), "/")
}

// Title prefers the frontmatter title.
func (d *Document) Title() string {
	if d.Meta.Title != "" {
		return d.Meta.Title
	}
	return d.Base.Title()
}

// Description returns the frontmatter description.
func (d *Document) Description() string { return d.Meta.Description }

// Info adds the tags and body to the base info.
func (d *Document) Info(ctx context.Context) (map[string]any, error) {
	info, err := d.Base.Info(ctx)
	if err != nil {
		return nil, err
	}
	info["document_tags"] = d.Meta.Tags
	info["document_content"] = d.Content
	for k, v := range d.Meta.Metadata {
		info["metadata_"+k] = v
	}
	return info, nil
}

// Collection lists the documents of a repository.
type Collection struct {
	contextplus.Collection

	Repo *loam.TypedRepository[DocumentMetadata]
	// Tag, when set, restricts the collection to documents carrying it.
	Tag string
	// DocumentType is the type given to documents. Defaults to DocumentType.
	DocumentType *contextplus.Type
}

// Option configures a Collection.
type Option func(*Collection)

// WithTag restricts the collection to documents tagged tag.
func WithTag(tag string) Option {
	return func(c *Collection) {
		c.Tag = tag
	}
}

// WithDocumentType sets the type of the documents, for instance to declare
// their transitions.
func WithDocumentType(t *contextplus.Type) Option {
	return func(c *Collection) {
		c.DocumentType = t
	}
}

// NewCollection creates a collection over repo.
func NewCollection(repo *loam.TypedRepository[DocumentMetadata], parent domain.Node, name string, opts ...Option) *Collection {
	c := &Collection{Repo: repo, DocumentType: DocumentType}
	for _, opt := range opts {
		opt(c)
	}
	typ := CollectionType
	if c.DocumentType != DocumentType {
		typ = &contextplus.Type{Name: CollectionType.Name, ChildType: c.DocumentType}
	}
	c.Init(c, typ, parent, name)
	return c
}

// IterChildren lists the documents, named by their id without extension.
func (c *Collection) IterChildren(ctx context.Context) iter.Seq2[domain.Node, error] {
	return func(yield func(domain.Node, error) bool) {
		docs, err := c.Repo.List(ctx)
		if err != nil {
			yield(nil, fmt.Errorf("loam list failed: %w", err))
			return
		}
		for _, doc := range docs {
			if c.Tag != "" && !slices.Contains(doc.Data.Tags, c.Tag) {
				continue
			}
			rawID := doc.Data.ID
			if rawID == "" {
				rawID = doc.ID
			}
			d := &Document{Meta: doc.Data, Content: doc.Content}
			d.Init(d, c.DocumentType, c, trimExtension(rawID))
			if !yield(d, nil) {
				return
			}
		}
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
