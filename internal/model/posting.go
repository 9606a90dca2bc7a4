package model

import "fmt"

// Posting is one scraped job listing as delivered by a scraper.
// The pipeline never mutates it after receipt.
type Posting struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Country     string `json:"country,omitempty"`
}

// Validate checks field presence only. Source reachability and content
// quality are the scraper's problem.
func (p *Posting) Validate() error {
	if p.JobID == "" {
		return fmt.Errorf("posting is missing job_id")
	}
	if p.Title == "" {
		return fmt.Errorf("posting %s is missing title", p.JobID)
	}
	if p.Company == "" {
		return fmt.Errorf("posting %s is missing company", p.JobID)
	}
	if p.Link == "" {
		return fmt.Errorf("posting %s is missing link", p.JobID)
	}
	return nil
}
