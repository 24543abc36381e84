package device

import (
	"context"
	"sync"
	"testing"

	"github.com/eshaffer321/extrachill-go/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_GeneratesOnceAndPersists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	id, err := NewSource(store).ID(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	// A fresh source over the same store returns the persisted id
	again, err := NewSource(store).ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestSource_UsesExistingID(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeyDeviceID, "install-42"))

	id, err := NewSource(store).ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "install-42", id)
}

func TestSource_ConcurrentFirstUse(t *testing.T) {
	ctx := context.Background()
	src := NewSource(storage.NewMemoryStore())

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _ = src.ID(ctx)
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
