package ingest_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/storage"
)

func newTestChunkAssembler(t *testing.T) (*ingest.ChunkAssembler, storage.Adapter) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)

	return ingest.NewChunkAssembler(store, redisClient), store
}

func TestChunkAssemblerTwoChunksAssembleAndFinalize(t *testing.T) {
	ca, store := newTestChunkAssembler(t)
	ctx := context.Background()

	result, err := ca.ReceiveChunk(ctx, "u1", "candidates.csv", 0, 2, []byte("name,email\nAda,ada"), nil)
	require.NoError(t, err)
	assert.Equal(t, ingest.ChunkInProgress, result.Status)
	assert.Equal(t, 50, result.ProgressPct)
	require.NotEmpty(t, result.StorageKey)

	final, err := ca.ReceiveChunk(ctx, "u1", "candidates.csv", 1, 2, []byte("@x.io\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, ingest.ChunkComplete, final.Status)
	assert.Equal(t, 100, final.ProgressPct)
	assert.Equal(t, []string{"name", "email"}, final.Headers)
	assert.Equal(t, result.StorageKey, final.StorageKey)

	exists, err := store.Exists(ctx, final.StorageKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestChunkAssemblerOutOfOrderFirstChunkErrors(t *testing.T) {
	ca, _ := newTestChunkAssembler(t)
	ctx := context.Background()

	_, err := ca.ReceiveChunk(ctx, "u1", "candidates.csv", 1, 2, []byte("tail"), nil)
	assert.Error(t, err)
}

func TestChunkAssemblerSingleChunkCompletesImmediately(t *testing.T) {
	ca, _ := newTestChunkAssembler(t)
	ctx := context.Background()

	result, err := ca.ReceiveChunk(ctx, "u1", "one-shot.csv", 0, 1, []byte("name,email\nAda,ada@x.io\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, ingest.ChunkComplete, result.Status)
	assert.Equal(t, []string{"name", "email"}, result.Headers)
}
