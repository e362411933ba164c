package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	t.Helper()
	ctx := context.Background()
	key := `("", "contract-` + time.Now().Format("20060102150405") + `")`

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, "draft"))

		state, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "draft", state)

		require.NoError(t, store.Save(ctx, key, "public"), "Save should overwrite")
		state, err = store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "public", state)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, key+"-missing")
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, "draft"))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1, k2 := key+"-1", key+"-2"
		require.NoError(t, store.Save(ctx, k1, "draft"))
		require.NoError(t, store.Save(ctx, k2, "public"))
		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
