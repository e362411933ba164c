package contextplus

import (
	"context"
	"errors"

	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/ports"
	"github.com/aretw0/contextplus/pkg/traversal"
)

// StoredItem is a node whose workflow state lives in the state store acquired
// from its ancestors, keyed by the canonical form of its path.
type StoredItem struct {
	Base
}

// NewStoredItem creates a stored item.
func NewStoredItem(typ *Type, parent domain.Node, name string) *StoredItem {
	s := &StoredItem{}
	s.Init(s, typ, parent, name)
	return s
}

// StateKey returns the key the state is stored under.
func (s *StoredItem) StateKey() string {
	return traversal.Key(s.Path())
}

func (s *StoredItem) store() (ports.StateStore, error) {
	return acquisition.As[ports.StateStore](s.this(), domain.CapStateStore)
}

// State implements workflow.Storage.
func (s *StoredItem) State(ctx context.Context) (string, error) {
	store, err := s.store()
	if err != nil {
		return "", err
	}
	state, err := store.Load(ctx, s.StateKey())
	if errors.Is(err, domain.ErrStateNotFound) {
		return s.Type().FallbackState(), nil
	}
	return state, err
}

// SetState implements workflow.Storage.
func (s *StoredItem) SetState(ctx context.Context, state string) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	return store.Save(ctx, s.StateKey(), state)
}

// ForgetState removes the stored state, returning the item to its default state.
func (s *StoredItem) ForgetState(ctx context.Context) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	return store.Delete(ctx, s.StateKey())
}
