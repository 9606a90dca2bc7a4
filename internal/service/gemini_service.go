package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/job-agent/internal/config"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// EmbeddingProvider is the outbound embedding interface: same-length,
// same-order response for a batch of texts.
type EmbeddingProvider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiService wraps the Gemini embedding API with retries, a circuit
// breaker and a minimum-interval throttle in front of every network call.
type GeminiService struct {
	Client         *genai.Client
	Model          string
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
	limiter        *rate.Limiter

	mu                sync.Mutex
	consecutiveErrors int
	circuitBreakerMax int
}

func NewGeminiService(ctx context.Context, minInterval time.Duration) (*GeminiService, error) {
	geminiConfig := config.LoadGeminiConfig()
	apiKey := geminiConfig.APIKey
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create gemini client: %w", err)
	}
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &GeminiService{
		Client:            client,
		Model:             geminiConfig.EmbeddingModel,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          90 * time.Second,
		RequestTimeout:    90 * time.Second,
		limiter:           rate.NewLimiter(rate.Every(minInterval), 1),
		circuitBreakerMax: 5,
	}, nil
}

// EmbedBatch embeds all texts in a single request. The caller batches cache
// misses, so one call here is one API call no matter how many texts missed.
func (s *GeminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, fmt.Errorf("text for embedding cannot be empty")
		}
		if len(trimmed) > 10000 {
			log.Printf("Warning: text length %d exceeds recommended limit, truncating...", len(trimmed))
			trimmed = trimmed[:10000]
		}
		contents = append(contents, genai.NewContentFromText(trimmed, genai.RoleUser))
	}

	if errCount, open := s.GetCircuitBreakerStatus(); open {
		return nil, fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", errCount)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			log.Printf("Retry attempt %d/%d for EmbedBatch after %v", attempt, s.MaxRetries, delay)

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		// Throttle before going to the network.
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		result, err := s.Client.Models.EmbedContent(timeoutCtx, s.Model, contents, nil)
		if err == nil {
			s.recordSuccess()
			embeddings, err := s.validateEmbeddingResponse(result, len(texts))
			if err != nil {
				return nil, fmt.Errorf("invalid embedding response: %w", err)
			}
			return embeddings, nil
		}

		lastErr = err

		if !s.isRetryableError(err) {
			log.Printf("Non-retryable error: %v", err)
			s.recordFailure()
			return nil, fmt.Errorf("embed batch failed: %w", err)
		}

		log.Printf("Retryable error on attempt %d: %v", attempt+1, err)
	}

	s.recordFailure()
	return nil, fmt.Errorf("max retries (%d) exceeded for EmbedBatch: %w", s.MaxRetries, lastErr)
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))

	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}

	jitter := time.Duration(float64(delay) * 0.25)
	delay = delay - jitter/2 + time.Duration(float64(jitter)*0.5)

	return delay
}

func (s *GeminiService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}
	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429: // Rate limit
			return true
		case 500, 502, 503, 504: // Server errors
			return true
		case 400, 401, 403, 404: // Client errors
			return false
		}
	}

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF") {
		return true
	}

	return false
}

func (s *GeminiService) validateEmbeddingResponse(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(resp.Embeddings))
	}

	out := make([][]float32, 0, want)
	for i, emb := range resp.Embeddings {
		values := emb.Values
		if len(values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		for j, val := range values {
			if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
				return nil, fmt.Errorf("invalid embedding value at %d[%d]: %v", i, j, val)
			}
		}
		out = append(out, values)
	}
	return out, nil
}

func (s *GeminiService) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors = 0
}

func (s *GeminiService) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors++
}

func (s *GeminiService) ResetCircuitBreaker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors = 0
	log.Println("Circuit breaker reset")
}

func (s *GeminiService) GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveErrors, s.consecutiveErrors >= s.circuitBreakerMax
}
