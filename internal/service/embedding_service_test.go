package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fadilmartias/job-agent/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shortProvider struct{}

func (shortProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)-1), nil
}

func newTestEmbeddings(t *testing.T, provider EmbeddingProvider) *EmbeddingService {
	t.Helper()
	cache := repository.NewEmbeddingCacheRepository(filepath.Join(t.TempDir(), "cache.json"))
	return NewEmbeddingService(provider, cache)
}

func TestEmbeddingServiceCacheThrough(t *testing.T) {
	t.Run("repeat text issues one provider call", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{"alpha": {1, 2}}}
		svc := newTestEmbeddings(t, provider)

		first, err := svc.Get(context.Background(), "alpha")
		require.NoError(t, err)
		second, err := svc.Get(context.Background(), "alpha")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, provider.calls)
	})

	t.Run("whitespace variants share one cache entry", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{"alpha": {1, 2}}}
		svc := newTestEmbeddings(t, provider)

		_, err := svc.Get(context.Background(), "  alpha \n")
		require.NoError(t, err)
		_, err = svc.Get(context.Background(), "alpha")
		require.NoError(t, err)

		assert.Equal(t, 1, provider.calls)
	})

	t.Run("batch sends only misses in a single call", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{
			"alpha": {1, 0},
			"beta":  {0, 1},
			"gamma": {1, 1},
		}}
		svc := newTestEmbeddings(t, provider)

		_, err := svc.Get(context.Background(), "alpha")
		require.NoError(t, err)

		vectors, err := svc.GetMany(context.Background(), []string{"alpha", "beta", "gamma"})
		require.NoError(t, err)

		require.Len(t, vectors, 3)
		assert.Equal(t, []float32{1, 0}, vectors[0])
		assert.Equal(t, []float32{0, 1}, vectors[1])
		assert.Equal(t, []float32{1, 1}, vectors[2])

		require.Equal(t, 2, provider.calls)
		assert.Equal(t, []string{"beta", "gamma"}, provider.batches[1])
	})

	t.Run("all hits skip the provider entirely", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{"alpha": {1, 0}}}
		svc := newTestEmbeddings(t, provider)

		_, err := svc.Get(context.Background(), "alpha")
		require.NoError(t, err)
		_, err = svc.GetMany(context.Background(), []string{"alpha", "alpha"})
		require.NoError(t, err)

		assert.Equal(t, 1, provider.calls)
	})

	t.Run("provider error propagates", func(t *testing.T) {
		provider := &stubProvider{err: errors.New("backend offline")}
		svc := newTestEmbeddings(t, provider)

		_, err := svc.Get(context.Background(), "alpha")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding provider failed")
	})

	t.Run("vector count mismatch is an error", func(t *testing.T) {
		svc := newTestEmbeddings(t, shortProvider{})

		_, err := svc.GetMany(context.Background(), []string{"alpha", "beta"})
		require.Error(t, err)
	})
}
