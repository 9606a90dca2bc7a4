package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/fadilmartias/job-agent/internal/config"
	"github.com/fadilmartias/job-agent/internal/model"
	"github.com/fadilmartias/job-agent/internal/repository"
	"github.com/stretchr/testify/assert"
)

// stubProvider serves canned vectors keyed by exact text. Texts without an
// entry get a fixed filler vector so centroid batches never fail by accident.
type stubProvider struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
	batches [][]string
}

func (p *stubProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.batches = append(p.batches, append([]string{}, texts...))
	if p.err != nil {
		return nil, p.err
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, ok := p.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out = append(out, vec)
	}
	return out, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestDetector(t *testing.T, entries []config.RoleEntry, provider EmbeddingProvider, threshold float64) *RoleDetector {
	t.Helper()
	cache := repository.NewEmbeddingCacheRepository(filepath.Join(t.TempDir(), "cache.json"))
	return NewRoleDetector(entries, NewEmbeddingService(provider, cache), threshold)
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Software Engineer", "software engineer"},
		{"Senior Software Engineer II", "software engineer"},
		{"Jr Data Analyst", "data analyst"},
		{"Lead DevOps Engineer III", "devops engineer"},
		{"Staff Engineer", "engineer"},
		{"Engineer V", "engineer"},
		{"Software Engineer (Backend)", "software engineer backend"},
		{"C++ Developer", "c++ developer"},
		{"IT & Security Analyst", "it & security analyst"},
		{"  software   engineer  ", "software engineer"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeTitle(tc.in), "input %q", tc.in)
	}
}

func TestDetectKeywordTier(t *testing.T) {
	entries := []config.RoleEntry{
		{Name: "Software Engineer", Aliases: []string{"Full Stack Developer"}},
		{Name: "Data Analyst"},
	}
	// A failing provider proves the keyword tier never touches the network.
	provider := &stubProvider{err: errors.New("backend offline")}
	detector := newTestDetector(t, entries, provider, 0.80)

	t.Run("exact title", func(t *testing.T) {
		det := detector.Detect(context.Background(), "Software Engineer", "")
		assert.Equal(t, "Software Engineer", det.Category)
		assert.Equal(t, "Software Engineer", det.Variation)
		assert.Equal(t, model.MethodKeyword, det.Method)
		assert.Equal(t, 1.0, det.Confidence)
	})

	t.Run("seniority and level markers stripped", func(t *testing.T) {
		det := detector.Detect(context.Background(), "Senior Software Engineer II", "")
		assert.Equal(t, "Software Engineer", det.Category)
		assert.Equal(t, model.MethodKeyword, det.Method)
	})

	t.Run("containment", func(t *testing.T) {
		det := detector.Detect(context.Background(), "Software Engineering Manager", "")
		assert.Equal(t, "Software Engineer", det.Category)
	})

	t.Run("word overlap matches alias", func(t *testing.T) {
		det := detector.Detect(context.Background(), "Full Stack Software Developer", "")
		assert.Equal(t, "Software Engineer", det.Category)
		assert.Equal(t, "Full Stack Developer", det.Variation)
	})

	assert.Zero(t, provider.calls, "keyword matches must not reach the provider")

	t.Run("no match with broken provider yields Unknown", func(t *testing.T) {
		det := detector.Detect(context.Background(), "Zookeeper", "")
		assert.True(t, det.IsUnknown())
		assert.Equal(t, model.MethodNone, det.Method)
		assert.Zero(t, det.Confidence)
	})
}

func TestDetectConfigurationOrderWins(t *testing.T) {
	provider := &stubProvider{err: errors.New("unused")}

	first := newTestDetector(t, []config.RoleEntry{
		{Name: "Platform Engineer"},
		{Name: "Engineer"},
	}, provider, 0.80)
	det := first.Detect(context.Background(), "Platform Engineer", "")
	assert.Equal(t, "Platform Engineer", det.Category)

	// Reversed order: the broader category now sits first and wins the
	// containment check before the exact category is tried.
	second := newTestDetector(t, []config.RoleEntry{
		{Name: "Engineer"},
		{Name: "Platform Engineer"},
	}, provider, 0.80)
	det = second.Detect(context.Background(), "Platform Engineer", "")
	assert.Equal(t, "Engineer", det.Category)
}

func TestDetectEmbeddingTier(t *testing.T) {
	entries := []config.RoleEntry{
		{Name: "Software Engineer", Aliases: []string{"Backend Developer"}},
	}

	t.Run("similar title above threshold matches", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{
			"Software Engineer": {1, 0, 0},
			"Backend Developer": {1, 0, 0},
			"Code Whisperer":    {0.9, 0.1, 0},
		}}
		detector := newTestDetector(t, entries, provider, 0.80)

		det := detector.Detect(context.Background(), "Code Whisperer", "")
		assert.Equal(t, "Software Engineer", det.Category)
		assert.Equal(t, model.MethodEmbedding, det.Method)
		assert.GreaterOrEqual(t, det.Confidence, 0.80)
		assert.LessOrEqual(t, det.Confidence, 1.0)
	})

	t.Run("dissimilar title stays Unknown", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{
			"Software Engineer": {1, 0, 0},
			"Backend Developer": {1, 0, 0},
			"Gardener":          {0, 1, 0},
		}}
		detector := newTestDetector(t, entries, provider, 0.80)

		det := detector.Detect(context.Background(), "Gardener", "")
		assert.True(t, det.IsUnknown())
		assert.Equal(t, model.MethodNone, det.Method)
	})

	t.Run("first description line joins the embedded text", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{
			"Software Engineer":            {1, 0, 0},
			"Backend Developer":            {1, 0, 0},
			"Builder APIs and Go services": {1, 0, 0},
		}}
		detector := newTestDetector(t, entries, provider, 0.80)

		det := detector.Detect(context.Background(), "Builder", "APIs and Go services\nsecond line ignored")
		assert.Equal(t, "Software Engineer", det.Category)
	})

	t.Run("long multibyte description clamps on a rune boundary", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{
			"Software Engineer": {1, 0, 0},
			"Backend Developer": {1, 0, 0},
		}}
		detector := newTestDetector(t, entries, provider, 0.80)

		// 100 three-byte runes: the 200-byte cap falls mid-rune.
		detector.Detect(context.Background(), "Builder", strings.Repeat("日", 100))

		for _, batch := range provider.batches {
			for _, text := range batch {
				assert.True(t, utf8.ValidString(text), "embedded text %q is not valid UTF-8", text)
			}
		}
	})

	t.Run("concurrent detections build centroids once", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{
			"Software Engineer": {1, 0, 0},
			"Backend Developer": {1, 0, 0},
			"Gardener":          {0, 1, 0},
		}}
		detector := newTestDetector(t, entries, provider, 0.80)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				detector.Detect(context.Background(), "Gardener", "")
			}()
		}
		wg.Wait()

		provider.mu.Lock()
		defer provider.mu.Unlock()
		aliasBatches := 0
		for _, batch := range provider.batches {
			if len(batch) == 2 {
				aliasBatches++
			}
		}
		assert.Equal(t, 1, aliasBatches, "alias centroid batch must run exactly once")
	})

	t.Run("centroids computed once and titles cached", func(t *testing.T) {
		provider := &stubProvider{vectors: map[string][]float32{
			"Software Engineer": {1, 0, 0},
			"Backend Developer": {1, 0, 0},
			"Gardener":          {0, 1, 0},
		}}
		detector := newTestDetector(t, entries, provider, 0.80)

		detector.Detect(context.Background(), "Gardener", "")
		// One batch for all alias texts, one for the title.
		assert.Equal(t, 2, provider.callCount())

		detector.Detect(context.Background(), "Gardener", "")
		assert.Equal(t, 2, provider.callCount(), "repeat detection must be served from cache")
	})
}
