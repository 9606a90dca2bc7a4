package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fadilmartias/job-agent/internal/config"
	"github.com/fadilmartias/job-agent/internal/model"
	"github.com/fadilmartias/job-agent/internal/util"
)

var (
	specialCharsRegex = regexp.MustCompile(`[^\w\s&+]`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

var seniorityPrefixes = []string{"senior ", "jr ", "junior ", "lead ", "principal ", "staff "}

var numeralSuffixes = []string{" i", " ii", " iii", " iv", " v"}

// RoleDetector maps a job title (plus a slice of its description) to one of
// the configured role categories. Keyword matching runs first because it is
// free; the embedding tier is the only network-bound step and is reached
// only when every keyword check fails.
type RoleDetector struct {
	categories []model.RoleCategory
	embeddings *EmbeddingService
	threshold  float64

	// Guards the lazy centroid computation against concurrent detections.
	centroidMu     sync.Mutex
	centroidsReady bool
}

func NewRoleDetector(entries []config.RoleEntry, embeddings *EmbeddingService, threshold float64) *RoleDetector {
	categories := make([]model.RoleCategory, 0, len(entries))
	for _, e := range entries {
		categories = append(categories, model.RoleCategory{
			Name:    e.Name,
			Aliases: append([]string{}, e.Aliases...),
		})
	}
	return &RoleDetector{
		categories: categories,
		embeddings: embeddings,
		threshold:  threshold,
	}
}

// Detect classifies one posting. Keyword matches carry confidence 1.0;
// embedding matches carry the cosine similarity. When neither tier matches
// (including any provider failure) the result is the Unknown sentinel with
// method "none" — a broken embedding backend must never abort an evaluation.
func (d *RoleDetector) Detect(ctx context.Context, title, description string) model.Detection {
	if det, ok := d.keywordMatch(title); ok {
		log.Printf("Role detected via keyword matching: %s -> %s", det.Category, det.Variation)
		return det
	}

	if det, ok := d.embeddingMatch(ctx, title, description); ok {
		log.Printf("Role detected via embedding matching: %s (similarity: %.3f)", det.Category, det.Confidence)
		return det
	}

	log.Printf("No role category found for: %s", title)
	return model.Detection{
		Category:  model.UnknownRole,
		Variation: model.UnknownRole,
		Method:    model.MethodNone,
	}
}

// Categories returns the canonical category names in configuration order.
func (d *RoleDetector) Categories() []string {
	names := make([]string, 0, len(d.categories))
	for _, c := range d.categories {
		names = append(names, c.Name)
	}
	return names
}

// NormalizeTitle lowercases, strips seniority prefixes and roman-numeral
// level suffixes, and collapses everything but letters, digits, '&' and '+'
// to single spaces.
func NormalizeTitle(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))

	for _, prefix := range seniorityPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = text[len(prefix):]
		}
	}
	for _, suffix := range numeralSuffixes {
		if strings.HasSuffix(text, suffix) {
			text = text[:len(text)-len(suffix)]
		}
	}

	text = specialCharsRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// keywordMatch tries every category in configuration order; the first match
// wins regardless of how well later categories might score.
func (d *RoleDetector) keywordMatch(title string) (model.Detection, bool) {
	normalizedTitle := NormalizeTitle(title)
	if normalizedTitle == "" {
		return model.Detection{}, false
	}

	for _, category := range d.categories {
		if isKeywordMatch(normalizedTitle, NormalizeTitle(category.Name)) {
			return model.Detection{
				Category:   category.Name,
				Variation:  category.Name,
				Confidence: 1.0,
				Method:     model.MethodKeyword,
			}, true
		}
		for _, alias := range category.Aliases {
			if isKeywordMatch(normalizedTitle, NormalizeTitle(alias)) {
				return model.Detection{
					Category:   category.Name,
					Variation:  alias,
					Confidence: 1.0,
					Method:     model.MethodKeyword,
				}, true
			}
		}
	}
	return model.Detection{}, false
}

// isKeywordMatch checks a normalized job title against one normalized role
// text: exact equality, containment either direction, then word-set overlap
// of at least 70% of the role's words (multi-word roles only).
func isKeywordMatch(jobTitle, roleText string) bool {
	if roleText == "" {
		return false
	}
	if jobTitle == roleText {
		return true
	}
	if strings.Contains(jobTitle, roleText) || strings.Contains(roleText, jobTitle) {
		return true
	}

	roleWords := mapset.NewSet(strings.Fields(roleText)...)
	if roleWords.Cardinality() <= 1 {
		return false
	}
	jobWords := mapset.NewSet(strings.Fields(jobTitle)...)
	overlap := jobWords.Intersect(roleWords).Cardinality()
	return float64(overlap)/float64(roleWords.Cardinality()) >= 0.7
}

func (d *RoleDetector) embeddingMatch(ctx context.Context, title, description string) (model.Detection, bool) {
	textToEmbed := title
	if description != "" {
		// First line of the description, capped, for extra context. The cap
		// backs off to a rune boundary so multibyte text is never split.
		snippet := strings.SplitN(description, "\n", 2)[0]
		if len(snippet) > 200 {
			cut := 200
			for cut > 0 && !utf8.RuneStart(snippet[cut]) {
				cut--
			}
			snippet = snippet[:cut]
		}
		textToEmbed = title + " " + snippet
	}

	if err := d.ensureCentroids(ctx); err != nil {
		log.Printf("Error computing role centroids: %v", err)
		return model.Detection{}, false
	}

	jobEmb, err := d.embeddings.Get(ctx, textToEmbed)
	if err != nil {
		log.Printf("Error in embedding matching: %v", err)
		return model.Detection{}, false
	}

	bestIdx := -1
	bestScore := -1.0
	for i, category := range d.categories {
		score := util.Cosine(jobEmb, category.Centroid)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < d.threshold {
		log.Printf("No embedding match for %q (best score: %.3f, threshold: %.2f)", title, bestScore, d.threshold)
		return model.Detection{}, false
	}

	category := d.categories[bestIdx].Name
	return model.Detection{
		Category:   category,
		Variation:  category,
		Confidence: bestScore,
		Method:     model.MethodEmbedding,
	}, true
}

// ensureCentroids computes every category's centroid on first use. The
// alias texts go out as one batched request through the cache, so repeated
// startups cost zero API calls once the cache file is warm.
func (d *RoleDetector) ensureCentroids(ctx context.Context) error {
	d.centroidMu.Lock()
	defer d.centroidMu.Unlock()
	if d.centroidsReady {
		return nil
	}

	var allTexts []string
	groupIndices := make([][]int, len(d.categories))
	for i, category := range d.categories {
		group := append([]string{category.Name}, category.Aliases...)
		for _, text := range group {
			groupIndices[i] = append(groupIndices[i], len(allTexts))
			allTexts = append(allTexts, text)
		}
	}

	allEmbs, err := d.embeddings.GetMany(ctx, allTexts)
	if err != nil {
		return err
	}

	for i := range d.categories {
		parts := make([][]float32, 0, len(groupIndices[i]))
		for _, idx := range groupIndices[i] {
			parts = append(parts, allEmbs[idx])
		}
		d.categories[i].Centroid = util.MeanVector(parts)
	}
	d.centroidsReady = true
	log.Printf("Computed centroids for %d role categories", len(d.categories))
	return nil
}
