package service

import (
	"context"
	"fmt"
	"log"

	"github.com/fadilmartias/job-agent/internal/repository"
)

// EmbeddingService is the cache-through layer in front of the embedding
// provider. Requesting the same normalized text twice never issues two
// provider calls, and all misses in one GetMany go out as a single batch.
type EmbeddingService struct {
	provider EmbeddingProvider
	cache    *repository.EmbeddingCacheRepository
}

func NewEmbeddingService(provider EmbeddingProvider, cache *repository.EmbeddingCacheRepository) *EmbeddingService {
	return &EmbeddingService{provider: provider, cache: cache}
}

// Get returns the embedding for one text.
func (s *EmbeddingService) Get(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.GetMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GetMany returns embeddings in input order. Cache hits are served from the
// persisted map; every miss is collected into one provider request, and the
// new vectors are written through to disk before being returned.
func (s *EmbeddingService) GetMany(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var toRequest []string
	idxMap := make(map[int]int) // index in texts -> index in toRequest
	for i, text := range texts {
		key := repository.NormalizeKey(text)
		if vec, ok := s.cache.Lookup(key); ok {
			results[i] = vec
			continue
		}
		idxMap[i] = len(toRequest)
		toRequest = append(toRequest, key)
	}

	if len(toRequest) == 0 {
		return results, nil
	}

	embeddings, err := s.provider.EmbedBatch(ctx, toRequest)
	if err != nil {
		return nil, fmt.Errorf("embedding provider failed: %w", err)
	}
	if len(embeddings) != len(toRequest) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(embeddings), len(toRequest))
	}

	fresh := make(map[string][]float32, len(toRequest))
	for origIdx, reqIdx := range idxMap {
		results[origIdx] = embeddings[reqIdx]
		fresh[toRequest[reqIdx]] = embeddings[reqIdx]
	}
	if err := s.cache.StoreAll(fresh); err != nil {
		// The vectors are still usable this run, only the cache write failed.
		log.Printf("Warning: cannot persist embedding cache: %v", err)
	}
	return results, nil
}
