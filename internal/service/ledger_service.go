package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fadilmartias/job-agent/internal/model"
	"github.com/fadilmartias/job-agent/internal/repository"
	"github.com/google/uuid"
)

// LedgerService is the dedup and quota ledger: it owns the session counters
// and fronts the history store. Every terminal pipeline transition results
// in exactly one Record call here; the ledger's correctness depends on that
// history being complete. mu guards the session counters, which are also
// read directly by the HTTP surface.
type LedgerService struct {
	mu      sync.Mutex
	history *repository.HistoryRepository

	maxJobsPerRun  int
	maxScrapeLimit int
	repostWindow   time.Duration
	summaryDir     string

	sessionID   uuid.UUID
	stats       model.SessionStats
	sessionJobs []string

	// Configuration echoed into the session summary artifact.
	configEcho any

	now func() time.Time
}

func NewLedgerService(history *repository.HistoryRepository, maxJobsPerRun, maxScrapeLimit int, repostWindow time.Duration, summaryDir string) *LedgerService {
	s := &LedgerService{
		history:        history,
		maxJobsPerRun:  maxJobsPerRun,
		maxScrapeLimit: maxScrapeLimit,
		repostWindow:   repostWindow,
		summaryDir:     summaryDir,
		now:            time.Now,
	}
	s.StartSession()
	return s
}

// SetConfigurationEcho attaches run configuration to the session summary.
func (s *LedgerService) SetConfigurationEcho(cfg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configEcho = cfg
}

// StartSession resets the per-run counters.
func (s *LedgerService) StartSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = uuid.New()
	s.stats = model.SessionStats{SessionStartTime: s.now()}
	s.sessionJobs = nil
	log.Printf("Started session %s with success cap %d, scrape cap %d", s.sessionID, s.maxJobsPerRun, s.maxScrapeLimit)
}

// IsDuplicate checks history in order: exact job_id, identical link, then a
// normalized title+company signature within the repost window. A signature
// match outside the window is not a duplicate — the same role may
// legitimately be reposted later.
func (s *LedgerService) IsDuplicate(jobID, title, company, link string) bool {
	if _, ok := s.history.Get(jobID); ok {
		return true
	}
	if link != "" && s.history.HasLink(link) {
		return true
	}

	cutoff := s.now().Add(-s.repostWindow)
	for _, rec := range s.history.FindBySignature(model.JobSignature(title, company)) {
		if rec.ProcessedAt.After(cutoff) {
			return true
		}
	}
	return false
}

// Record persists one terminal outcome, write-through, and updates the
// session counters. A crash after this call never loses the attempt.
func (s *LedgerService) Record(jobID, title, company, link, outcome, reason string) error {
	rec := model.HistoryRecord{
		JobID:        jobID,
		Title:        title,
		Company:      company,
		Link:         link,
		Outcome:      outcome,
		IgnoreReason: reason,
		ProcessedAt:  s.now(),
	}
	if err := s.history.Put(rec); err != nil {
		return fmt.Errorf("cannot record job %s: %w", jobID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionJobs = append(s.sessionJobs, jobID)
	s.stats.TotalProcessed++

	switch outcome {
	case model.OutcomeReadyToApply:
		s.stats.SuccessfulApplications++
	case model.OutcomeIgnored:
		switch reason {
		case model.ReasonRoleUnknown:
			s.stats.IgnoredRoleUnknown++
		case model.ReasonWorkPermitOnly, model.ReasonLocationIncompatible:
			s.stats.IgnoredWorkPermit++
		case model.ReasonLowFit:
			s.stats.IgnoredLowFit++
		case model.ReasonDuplicate:
			s.stats.IgnoredDuplicate++
		}
	}

	log.Printf("Recorded job attempt: %s at %s - %s %s", title, company, outcome, reason)
	return nil
}

// IncrementScraped bumps the examined-postings counter.
func (s *LedgerService) IncrementScraped(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalScraped += count
}

// CanAcceptMore reports whether the success cap still has room. Once false
// it stays false for the remainder of the session.
func (s *LedgerService) CanAcceptMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAcceptMore()
}

func (s *LedgerService) canAcceptMore() bool {
	return s.stats.SuccessfulApplications < s.maxJobsPerRun
}

// ShouldKeepScraping enforces the scrape-volume cap. The orchestrator
// checks this and CanAcceptMore independently between postings.
func (s *LedgerService) ShouldKeepScraping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats.TotalScraped >= s.maxScrapeLimit {
		log.Printf("Reached scraping limit of %d jobs", s.maxScrapeLimit)
		return false
	}
	return true
}

// RemainingSlots returns how many successes the session can still take.
func (s *LedgerService) RemainingSlots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingSlots()
}

func (s *LedgerService) remainingSlots() int {
	remaining := s.maxJobsPerRun - s.stats.SuccessfulApplications
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stats returns a copy of the current session counters.
func (s *LedgerService) Stats() model.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// SessionSummary builds the summary view for the current session.
func (s *LedgerService) SessionSummary() model.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionSummary()
}

func (s *LedgerService) sessionSummary() model.SessionSummary {
	successRate := 0.0
	if s.stats.TotalProcessed > 0 {
		successRate = float64(s.stats.SuccessfulApplications) / float64(s.stats.TotalProcessed) * 100
	}
	jobIDs := append([]string{}, s.sessionJobs...)
	return model.SessionSummary{
		SessionID:       s.sessionID.String(),
		Stats:           s.stats,
		Configuration:   s.configEcho,
		ProcessedJobIDs: jobIDs,
		SuccessRatePct:  successRate,
		RemainingSlots:  s.remainingSlots(),
		CanProcessMore:  s.canAcceptMore(),
	}
}

// EndSession stamps the end time and writes the per-session summary
// artifact. The session remains queryable afterwards.
func (s *LedgerService) EndSession() (model.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := s.now()
	s.stats.SessionEndTime = &end
	summary := s.sessionSummary()

	if err := os.MkdirAll(s.summaryDir, 0755); err != nil {
		return summary, fmt.Errorf("cannot create summary directory: %w", err)
	}
	path := filepath.Join(s.summaryDir, fmt.Sprintf("session_summary_%s.json", s.sessionID))
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return summary, fmt.Errorf("cannot marshal session summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return summary, fmt.Errorf("cannot write session summary: %w", err)
	}

	log.Printf("Ended session %s. Successful applications: %d", s.sessionID, s.stats.SuccessfulApplications)
	return summary, nil
}

// CleanupOldRecords purges history older than the retention horizon. This
// is independent of the repost window.
func (s *LedgerService) CleanupOldRecords(retention time.Duration) (int, error) {
	removed, err := s.history.PurgeOlderThan(s.now().Add(-retention))
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		log.Printf("Cleaned up %d old job records", removed)
	}
	return removed, nil
}
