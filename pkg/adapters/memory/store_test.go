package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/contextplus/pkg/adapters/memory"
	"github.com/aretw0/contextplus/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, "b", "draft"))
	require.NoError(t, store.Save(ctx, "a", "draft"))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	_, ok := store.UpdatedAt("a")
	assert.True(t, ok)
	_, ok = store.UpdatedAt("missing")
	assert.False(t, ok)
}
