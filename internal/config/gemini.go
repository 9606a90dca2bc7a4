package config

import (
	"os"
	"sync"
)

// GeminiConfig holds the credentials and model selection for the embedding
// backend.
type GeminiConfig struct {
	APIKey         string
	EmbeddingModel string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		model := os.Getenv("GEMINI_EMBEDDING_MODEL")
		if model == "" {
			model = "gemini-embedding-001"
		}
		geminiConfig = &GeminiConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			EmbeddingModel: model,
		}
	})
	return geminiConfig
}
