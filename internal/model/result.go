package model

// Intake result statuses. Every posting ends in exactly one of these.
const (
	IntakeAccepted = "accepted"
	IntakeRejected = "rejected"
	IntakeError    = "error"
)

// IntakeResult is the pipeline's terminal classification for one posting.
// Exactly one variant applies: Accepted carries the resolved role, Rejected
// carries a reason (and the permit verdict when stage 3 rejected it), Error
// carries a message.
type IntakeResult struct {
	Status    string                `json:"status"`
	JobID     string                `json:"job_id"`
	Reason    string                `json:"reason,omitempty"`
	Message   string                `json:"message,omitempty"`
	Detection *Detection            `json:"detection,omitempty"`
	Verdict   *CompatibilityVerdict `json:"verdict,omitempty"`
	FitScore  float64               `json:"fit_score,omitempty"`
}

// Accepted reports whether the posting should advance to tailoring/scoring.
func (r IntakeResult) Accepted() bool {
	return r.Status == IntakeAccepted
}
