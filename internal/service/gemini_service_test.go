package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerCounter(t *testing.T) {
	s := &GeminiService{circuitBreakerMax: 5}

	const failures = 50
	var wg sync.WaitGroup
	for i := 0; i < failures; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.recordFailure()
		}()
	}
	wg.Wait()

	errCount, open := s.GetCircuitBreakerStatus()
	assert.Equal(t, failures, errCount)
	assert.True(t, open)

	s.ResetCircuitBreaker()
	errCount, open = s.GetCircuitBreakerStatus()
	assert.Zero(t, errCount)
	assert.False(t, open)

	s.recordFailure()
	s.recordSuccess()
	errCount, _ = s.GetCircuitBreakerStatus()
	assert.Zero(t, errCount, "a success resets the consecutive-error count")
}

func TestCalculateBackoffIsCapped(t *testing.T) {
	s := &GeminiService{BaseDelay: time.Second, MaxDelay: 4 * time.Second}

	assert.Equal(t, time.Second, s.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, s.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, s.calculateBackoff(3))
	assert.Equal(t, 4*time.Second, s.calculateBackoff(10))
}
