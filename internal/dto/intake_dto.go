package dto

import (
	"time"

	"github.com/fadilmartias/job-agent/internal/model"
)

// PostingRequest is the inbound shape for a single scraped posting.
type PostingRequest struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Country     string `json:"country,omitempty"`
}

func (r PostingRequest) ToModel() model.Posting {
	return model.Posting{
		JobID:       r.JobID,
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		Description: r.Description,
		Link:        r.Link,
		Country:     r.Country,
	}
}

// BatchRequest carries one scraped batch for sequential intake.
type BatchRequest struct {
	Postings []PostingRequest `json:"postings"`
}

// OutcomeRequest is the downstream report-back for an accepted posting.
type OutcomeRequest struct {
	Outcome string `json:"outcome"` // ready_to_apply | ignored | error
	Reason  string `json:"reason,omitempty"`
}

// HistoryRecordDTO mirrors one ledger entry for the history listing.
type HistoryRecordDTO struct {
	JobID        string    `json:"job_id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Link         string    `json:"link"`
	Outcome      string    `json:"outcome"`
	IgnoreReason string    `json:"ignore_reason,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

func HistoryRecordFromModel(rec model.HistoryRecord) HistoryRecordDTO {
	return HistoryRecordDTO{
		JobID:        rec.JobID,
		Title:        rec.Title,
		Company:      rec.Company,
		Link:         rec.Link,
		Outcome:      rec.Outcome,
		IgnoreReason: rec.IgnoreReason,
		ProcessedAt:  rec.ProcessedAt,
	}
}
