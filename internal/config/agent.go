package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// AgentConfig carries everything the intake pipeline needs for a run:
// applicant profile, thresholds, per-run caps, phrase lists and file paths.
// Static once loaded.
type AgentConfig struct {
	ApplicantCountry string

	SimilarityThreshold float64
	FitScoreThreshold   float64

	MaxJobsPerRun  int
	MaxScrapeLimit int

	RepostWindowDays int
	RetentionDays    int

	// Minimum interval between outbound AI calls (embedding or chat).
	MinRequestInterval time.Duration

	RestrictiveLocalTerms        []string
	PositiveSponsorshipTerms     []string
	SponsorshipFriendlyCountries []string

	RolesFile          string
	ProcessedJobsFile  string
	EmbeddingCacheFile string
	SessionSummaryDir  string
	BaseResumesDir     string
}

var (
	agentConfig *AgentConfig
	agentOnce   sync.Once
)

const defaultRestrictiveTerms = "must have valid work permit,must be authorized to work,local applicants only,must already reside in,no visa sponsorship,must have work authorization,only citizens,permanent residents only,must be eligible to work,work permit required,authorization to work required,local candidates only,residents only,no sponsorship available"

const defaultPositiveTerms = "visa sponsorship available,open to international applicants,work permit sponsorship,relocation assistance,willing to sponsor,global applicants welcome,sponsorship provided,visa support available,international candidates welcome,work authorization sponsorship,H1B sponsorship,visa assistance,sponsorship opportunities"

const defaultSponsorshipCountries = "United States,Canada,United Kingdom,Germany,Netherlands,Sweden,Denmark,Norway,Australia,New Zealand,Singapore,Ireland,Switzerland,France,Austria,Belgium,Luxembourg"

func LoadAgentConfig() *AgentConfig {
	agentOnce.Do(func() {
		agentConfig = &AgentConfig{
			ApplicantCountry:             envOr("APPLICANT_COUNTRY", "Nigeria"),
			SimilarityThreshold:          envFloat("SIMILARITY_THRESHOLD", 0.80),
			FitScoreThreshold:            envFloat("FIT_SCORE_THRESHOLD", 8.5),
			MaxJobsPerRun:                envInt("MAX_JOBS_PER_RUN", 5),
			MaxScrapeLimit:               envInt("MAX_SCRAPE_LIMIT", 50),
			RepostWindowDays:             30,
			RetentionDays:                envInt("HISTORY_RETENTION_DAYS", 90),
			MinRequestInterval:           time.Duration(envInt("MIN_REQUEST_INTERVAL_MS", 1000)) * time.Millisecond,
			RestrictiveLocalTerms:        splitList(envOr("RESTRICTIVE_LOCAL_TERMS", defaultRestrictiveTerms)),
			PositiveSponsorshipTerms:     splitList(envOr("POSITIVE_SPONSORSHIP_TERMS", defaultPositiveTerms)),
			SponsorshipFriendlyCountries: splitList(envOr("SPONSORSHIP_FRIENDLY_COUNTRIES", defaultSponsorshipCountries)),
			RolesFile:                    envOr("ROLES_FILE", "config/roles.json"),
			ProcessedJobsFile:            envOr("PROCESSED_JOBS_FILE", "data/processed_jobs.json"),
			EmbeddingCacheFile:           envOr("EMBEDDING_CACHE_FILE", "data/embeddings_cache.json"),
			SessionSummaryDir:            envOr("SESSION_SUMMARY_DIR", "data"),
			BaseResumesDir:               envOr("BASE_RESUMES_DIR", "base_resumes"),
		}
	})
	return agentConfig
}

// Validate reports configuration errors that must abort startup.
func (c *AgentConfig) Validate() error {
	if c.ApplicantCountry == "" {
		return fmt.Errorf("APPLICANT_COUNTRY is required")
	}
	if c.MaxJobsPerRun <= 0 {
		return fmt.Errorf("MAX_JOBS_PER_RUN must be greater than 0")
	}
	if c.MaxScrapeLimit <= 0 {
		return fmt.Errorf("MAX_SCRAPE_LIMIT must be greater than 0")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.FitScoreThreshold < 0 || c.FitScoreThreshold > 10 {
		return fmt.Errorf("FIT_SCORE_THRESHOLD must be between 0 and 10")
	}
	if len(c.RestrictiveLocalTerms) == 0 {
		return fmt.Errorf("no restrictive terms configured")
	}
	if len(c.PositiveSponsorshipTerms) == 0 {
		return fmt.Errorf("no positive sponsorship terms configured")
	}
	return nil
}

// RepostWindow returns the repost lookback as a duration.
func (c *AgentConfig) RepostWindow() time.Duration {
	return time.Duration(c.RepostWindowDays) * 24 * time.Hour
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
