package usecase

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/job-agent/internal/model"
	"github.com/fadilmartias/job-agent/internal/service"
)

// IntakeUsecase sequences the intake pipeline: dedup check, role detection,
// compatibility analysis, then hand-off to tailoring/scoring. Stages run in
// that order with early exit; compatibility is never evaluated for a
// posting whose role is Unknown, because the filter rules are meaningless
// without the target role's context.
//
// The pipeline processes one posting at a time: mu serializes evaluations
// and outcome reports, so concurrent HTTP requests cannot interleave the
// quota counters or the pending map.
type IntakeUsecase struct {
	mu       sync.Mutex
	ledger   *service.LedgerService
	detector *service.RoleDetector
	analyzer *service.WorkPermitAnalyzer
	tailor   service.ApplicationTailor

	fitThreshold   float64
	baseResumesDir string

	// Accepted postings waiting for their downstream outcome report.
	pending map[string]model.Posting
}

func NewIntakeUsecase(ledger *service.LedgerService, detector *service.RoleDetector, analyzer *service.WorkPermitAnalyzer, tailor service.ApplicationTailor, fitThreshold float64, baseResumesDir string) *IntakeUsecase {
	return &IntakeUsecase{
		ledger:         ledger,
		detector:       detector,
		analyzer:       analyzer,
		tailor:         tailor,
		fitThreshold:   fitThreshold,
		baseResumesDir: baseResumesDir,
		pending:        make(map[string]model.Posting),
	}
}

// Evaluate runs one posting through the decision stages and returns its
// terminal classification. Every rejection and error is recorded in the
// ledger before returning; an accepted posting is recorded later, when the
// downstream stages report back through RecordFinalOutcome.
func (uc *IntakeUsecase) Evaluate(ctx context.Context, posting model.Posting) model.IntakeResult {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.evaluate(ctx, posting)
}

func (uc *IntakeUsecase) evaluate(ctx context.Context, posting model.Posting) model.IntakeResult {
	uc.ledger.IncrementScraped(1)

	if err := posting.Validate(); err != nil {
		result := model.IntakeResult{
			Status:  model.IntakeError,
			JobID:   posting.JobID,
			Message: err.Error(),
		}
		if posting.JobID != "" {
			uc.record(posting, model.OutcomeError, err.Error())
		}
		return result
	}

	log.Printf("Processing job: %s at %s (ID: %s)", posting.Title, posting.Company, posting.JobID)

	// Stage 1: dedup.
	if uc.ledger.IsDuplicate(posting.JobID, posting.Title, posting.Company, posting.Link) {
		uc.record(posting, model.OutcomeIgnored, model.ReasonDuplicate)
		return model.IntakeResult{
			Status: model.IntakeRejected,
			JobID:  posting.JobID,
			Reason: model.ReasonDuplicate,
		}
	}

	// Stage 2: role detection.
	detection := uc.detector.Detect(ctx, posting.Title, posting.Description)
	if detection.IsUnknown() {
		uc.record(posting, model.OutcomeIgnored, model.ReasonRoleUnknown)
		return model.IntakeResult{
			Status:    model.IntakeRejected,
			JobID:     posting.JobID,
			Reason:    model.ReasonRoleUnknown,
			Detection: &detection,
		}
	}

	// Stage 3: location/work-permit compatibility, only for classified roles.
	verdict := uc.analyzer.Evaluate(posting.Location, posting.Description)
	if verdict.ShouldStop {
		uc.record(posting, model.OutcomeIgnored, verdict.Reason)
		return model.IntakeResult{
			Status:    model.IntakeRejected,
			JobID:     posting.JobID,
			Reason:    verdict.Reason,
			Detection: &detection,
			Verdict:   &verdict,
		}
	}

	uc.pending[posting.JobID] = posting
	return model.IntakeResult{
		Status:    model.IntakeAccepted,
		JobID:     posting.JobID,
		Detection: &detection,
		Verdict:   &verdict,
	}
}

// RecordFinalOutcome is the report-back path for downstream stages: once
// tailoring/scoring finishes for an accepted posting, its eventual outcome
// lands in the ledger here.
func (uc *IntakeUsecase) RecordFinalOutcome(jobID, outcome, reason string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.recordFinalOutcome(jobID, outcome, reason)
}

func (uc *IntakeUsecase) recordFinalOutcome(jobID, outcome, reason string) error {
	posting, ok := uc.pending[jobID]
	if !ok {
		return fmt.Errorf("job %s has no pending evaluation", jobID)
	}
	delete(uc.pending, jobID)
	return uc.ledger.Record(jobID, posting.Title, posting.Company, posting.Link, outcome, reason)
}

// ProcessBatch runs a scraped batch through intake sequentially, one posting
// at a time. Both quota predicates are checked between postings; a posting
// already being evaluated is never interrupted. Accepted postings continue
// through tailoring/scoring so the batch ends with final outcomes.
func (uc *IntakeUsecase) ProcessBatch(ctx context.Context, postings []model.Posting) []model.IntakeResult {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	results := make([]model.IntakeResult, 0, len(postings))

	for _, posting := range postings {
		if !uc.ledger.CanAcceptMore() {
			log.Printf("Success cap reached, stopping batch")
			break
		}
		if !uc.ledger.ShouldKeepScraping() {
			break
		}

		result := uc.evaluate(ctx, posting)
		if result.Accepted() {
			result = uc.applyDownstream(ctx, posting, result)
		}
		results = append(results, result)
	}
	return results
}

// applyDownstream is the post-acceptance path restored from the original
// flow: load the category's base resume, tailor and score, then record the
// final outcome through the report-back path.
func (uc *IntakeUsecase) applyDownstream(ctx context.Context, posting model.Posting, accepted model.IntakeResult) model.IntakeResult {
	baseResume, err := uc.loadBaseResume(accepted.Detection.Category)
	if err != nil {
		log.Printf("Base resume not found for category %s: %v", accepted.Detection.Category, err)
		_ = uc.recordFinalOutcome(posting.JobID, model.OutcomeError, model.ReasonNoBaseResume)
		return model.IntakeResult{
			Status:    model.IntakeError,
			JobID:     posting.JobID,
			Reason:    model.ReasonNoBaseResume,
			Message:   err.Error(),
			Detection: accepted.Detection,
		}
	}

	application, err := uc.tailor.TailorAndScore(ctx, posting.Title, posting.Company, posting.Description, baseResume)
	if err != nil {
		log.Printf("Tailoring/scoring failed for %s: %v", posting.JobID, err)
		_ = uc.recordFinalOutcome(posting.JobID, model.OutcomeError, err.Error())
		return model.IntakeResult{
			Status:    model.IntakeError,
			JobID:     posting.JobID,
			Message:   err.Error(),
			Detection: accepted.Detection,
		}
	}

	if application.FitScore < uc.fitThreshold {
		log.Printf("Job fit score %.1f below threshold %.1f", application.FitScore, uc.fitThreshold)
		_ = uc.recordFinalOutcome(posting.JobID, model.OutcomeIgnored, model.ReasonLowFit)
		return model.IntakeResult{
			Status:    model.IntakeRejected,
			JobID:     posting.JobID,
			Reason:    model.ReasonLowFit,
			Detection: accepted.Detection,
			FitScore:  application.FitScore,
		}
	}

	if err := uc.recordFinalOutcome(posting.JobID, model.OutcomeReadyToApply, ""); err != nil {
		log.Printf("Cannot record final outcome for %s: %v", posting.JobID, err)
	}
	accepted.FitScore = application.FitScore
	return accepted
}

func (uc *IntakeUsecase) loadBaseResume(category string) (string, error) {
	filename := strings.ReplaceAll(category, " ", "_") + ".txt"
	data, err := os.ReadFile(filepath.Join(uc.baseResumesDir, filename))
	if err != nil {
		return "", fmt.Errorf("cannot load base resume for %s: %w", category, err)
	}
	return string(data), nil
}

func (uc *IntakeUsecase) record(posting model.Posting, outcome, reason string) {
	if err := uc.ledger.Record(posting.JobID, posting.Title, posting.Company, posting.Link, outcome, reason); err != nil {
		log.Printf("Cannot record outcome for %s: %v", posting.JobID, err)
	}
}

// QuotaExhausted reports whether either per-session cap refuses new
// postings. The HTTP surface checks this before handing a single posting to
// the pipeline, so one-at-a-time submissions count against the same caps as
// batches.
func (uc *IntakeUsecase) QuotaExhausted() bool {
	return !uc.ledger.CanAcceptMore() || !uc.ledger.ShouldKeepScraping()
}

// SessionSummary returns the live summary for the current session.
func (uc *IntakeUsecase) SessionSummary() model.SessionSummary {
	return uc.ledger.SessionSummary()
}

// EndSession flushes the session summary artifact.
func (uc *IntakeUsecase) EndSession() (model.SessionSummary, error) {
	return uc.ledger.EndSession()
}

// CleanupHistory purges records older than the retention horizon.
func (uc *IntakeUsecase) CleanupHistory(retention time.Duration) (int, error) {
	return uc.ledger.CleanupOldRecords(retention)
}
