package repository

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EmbeddingCacheRepository persists the normalized-text -> vector map the
// role detector relies on. The file is loaded lazily on first use; a missing
// or corrupt file is treated as an empty cache and logged, never fatal,
// because the detector can always re-request embeddings.
type EmbeddingCacheRepository struct {
	mu       sync.Mutex
	filePath string
	loaded   bool
	entries  map[string][]float32
}

func NewEmbeddingCacheRepository(filePath string) *EmbeddingCacheRepository {
	return &EmbeddingCacheRepository{
		filePath: filePath,
		entries:  make(map[string][]float32),
	}
}

// NormalizeKey is the cache key normalization: trim only, matching the
// persisted file format.
func NormalizeKey(text string) string {
	return strings.TrimSpace(text)
}

// Lookup returns the cached vector for a normalized key.
func (r *EmbeddingCacheRepository) Lookup(key string) ([]float32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded()
	vec, ok := r.entries[key]
	return vec, ok
}

// StoreAll writes new entries and persists the whole cache. Persisting
// before the vectors are used is what makes repeat lookups free.
func (r *EmbeddingCacheRepository) StoreAll(vectors map[string][]float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded()
	for key, vec := range vectors {
		r.entries[key] = vec
	}
	return r.save()
}

// Len reports the number of cached entries.
func (r *EmbeddingCacheRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded()
	return len(r.entries)
}

func (r *EmbeddingCacheRepository) ensureLoaded() {
	if r.loaded {
		return
	}
	r.loaded = true

	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: cannot read embedding cache %s: %v", r.filePath, err)
		}
		return
	}

	var entries map[string][]float32
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("Warning: embedding cache %s is corrupt, starting empty: %v", r.filePath, err)
		return
	}
	r.entries = entries
	log.Printf("Loaded %d cached embeddings from %s", len(entries), r.filePath)
}

// save writes the cache atomically: marshal to a temp file in the same
// directory, then rename over the target so a crash mid-write never leaves
// a truncated file.
func (r *EmbeddingCacheRepository) save() error {
	if err := os.MkdirAll(filepath.Dir(r.filePath), 0755); err != nil {
		return fmt.Errorf("cannot create cache directory: %w", err)
	}

	data, err := json.Marshal(r.entries)
	if err != nil {
		return fmt.Errorf("cannot marshal embedding cache: %w", err)
	}

	tmp := r.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("cannot write embedding cache temp file: %w", err)
	}
	if err := os.Rename(tmp, r.filePath); err != nil {
		return fmt.Errorf("cannot replace embedding cache file: %w", err)
	}
	return nil
}
