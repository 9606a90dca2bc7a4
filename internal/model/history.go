package model

import (
	"strings"
	"time"
)

// Outcome values recorded in the history file.
const (
	OutcomeReadyToApply = "ready_to_apply"
	OutcomeIgnored      = "ignored"
	OutcomeError        = "error"
)

// Ignore/rejection reasons. The strings are part of the persisted file
// format and the tracker rows, keep them stable.
const (
	ReasonDuplicate            = "duplicate"
	ReasonRoleUnknown          = "role=Unknown"
	ReasonWorkPermitOnly       = "work-permit-only"
	ReasonLocationIncompatible = "location-incompatible"
	ReasonLowFit               = "fit<8.5"
	ReasonNoBaseResume         = "no_base_resume"
)

// HistoryRecord is one evaluated posting, keyed by job_id in the
// processed-jobs file.
type HistoryRecord struct {
	JobID        string    `json:"job_id"`
	Title        string    `json:"job_title"`
	Company      string    `json:"company_name"`
	Link         string    `json:"job_link"`
	Outcome      string    `json:"status"`
	IgnoreReason string    `json:"ignore_reason,omitempty"`
	ProcessedAt  time.Time `json:"processed_date"`
}

// Signature returns the normalized title+company key used for repost
// detection. Distinct postings with the same signature inside the repost
// window are treated as duplicates.
func (r *HistoryRecord) Signature() string {
	return JobSignature(r.Title, r.Company)
}

// JobSignature builds the repost-detection key for a title+company pair.
func JobSignature(title, company string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "_" + strings.ToLower(strings.TrimSpace(company))
}

// SessionStats are the per-run counters, reset when a session starts and
// flushed into the session summary artifact at session end.
type SessionStats struct {
	TotalScraped           int        `json:"total_scraped"`
	TotalProcessed         int        `json:"total_processed"`
	SuccessfulApplications int        `json:"successful_applications"`
	IgnoredRoleUnknown     int        `json:"ignored_role_unknown"`
	IgnoredWorkPermit      int        `json:"ignored_work_permit"`
	IgnoredLowFit          int        `json:"ignored_low_fit"`
	IgnoredDuplicate       int        `json:"ignored_duplicate"`
	SessionStartTime       time.Time  `json:"session_start_time"`
	SessionEndTime         *time.Time `json:"session_end_time,omitempty"`
}

// SessionSummary is the per-session JSON document written at session end
// and returned by the summary query.
type SessionSummary struct {
	SessionID       string       `json:"session_id"`
	Stats           SessionStats `json:"session_stats"`
	Configuration   any          `json:"configuration,omitempty"`
	ProcessedJobIDs []string     `json:"processed_job_ids"`
	SuccessRatePct  float64      `json:"success_rate_percentage"`
	RemainingSlots  int          `json:"remaining_slots"`
	CanProcessMore  bool         `json:"can_process_more"`
}
