package ports

import (
	"context"
)

// StateStore persists workflow states keyed by a node's canonical path.
type StateStore interface {
	// Save stores the state for key, replacing any previous value.
	Save(ctx context.Context, key string, state string) error

	// Load retrieves the state for key.
	// Returns domain.ErrStateNotFound if nothing is stored under key.
	Load(ctx context.Context, key string) (string, error)

	// Delete removes the state for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key currently holding a state.
	List(ctx context.Context) ([]string, error)
}
