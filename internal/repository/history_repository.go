package repository

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fadilmartias/job-agent/internal/model"
)

// processedJobsFile is the on-disk shape of the history store. The wrapper
// fields match the original processed_jobs.json so existing files keep
// loading across versions.
type processedJobsFile struct {
	LastUpdated   time.Time                      `json:"last_updated"`
	ProcessedJobs map[string]model.HistoryRecord `json:"processed_jobs"`
	TotalCount    int                            `json:"total_processed_count"`
}

// HistoryRepository owns the processed-jobs file: every posting ever
// evaluated, keyed by job_id. Writes are synchronous and atomic so a crash
// after posting N never loses the fact that N was attempted.
type HistoryRepository struct {
	mu       sync.Mutex
	filePath string
	records  map[string]model.HistoryRecord
}

func NewHistoryRepository(filePath string) *HistoryRepository {
	r := &HistoryRepository{
		filePath: filePath,
		records:  make(map[string]model.HistoryRecord),
	}
	r.load()
	return r
}

func (r *HistoryRepository) load() {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: cannot read history file %s: %v", r.filePath, err)
		}
		return
	}

	var file processedJobsFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Printf("Warning: history file %s is corrupt, starting empty: %v", r.filePath, err)
		return
	}
	if file.ProcessedJobs != nil {
		r.records = file.ProcessedJobs
	}
	log.Printf("Loaded %d previously processed jobs from %s", len(r.records), r.filePath)
}

// Get returns the record for a job_id.
func (r *HistoryRepository) Get(jobID string) (model.HistoryRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[jobID]
	return rec, ok
}

// Put appends or updates a record and persists immediately (write-through).
func (r *HistoryRepository) Put(rec model.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.JobID] = rec
	return r.save()
}

// HasLink reports whether any record shares the given link. Some job sites
// reuse URLs across distinct source-assigned ids.
func (r *HistoryRepository) HasLink(link string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Link == link {
			return true
		}
	}
	return false
}

// FindBySignature returns every record whose normalized title+company
// signature matches.
func (r *HistoryRepository) FindBySignature(signature string) []model.HistoryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []model.HistoryRecord
	for _, rec := range r.records {
		if rec.Signature() == signature {
			matches = append(matches, rec)
		}
	}
	return matches
}

// Count returns the number of stored records.
func (r *HistoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// List returns one page of records, newest first, plus the total count.
func (r *HistoryRepository) List(page, pageSize int) ([]model.HistoryRecord, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]model.HistoryRecord, 0, len(r.records))
	for _, rec := range r.records {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ProcessedAt.After(all[j].ProcessedAt)
	})

	total := len(all)
	start := (page - 1) * pageSize
	if start < 0 || start >= total {
		return []model.HistoryRecord{}, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total
}

// PurgeOlderThan drops records processed before the cutoff and persists if
// anything changed. Records without a usable timestamp are kept.
func (r *HistoryRepository) PurgeOlderThan(cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rec := range r.records {
		if !rec.ProcessedAt.IsZero() && rec.ProcessedAt.Before(cutoff) {
			delete(r.records, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, r.save()
}

// save writes the whole file atomically (temp file + rename). Acceptable
// for modest history sizes; the contract to keep if this ever moves to an
// embedded store is the per-record atomic write.
func (r *HistoryRepository) save() error {
	if err := os.MkdirAll(filepath.Dir(r.filePath), 0755); err != nil {
		return fmt.Errorf("cannot create history directory: %w", err)
	}

	file := processedJobsFile{
		LastUpdated:   time.Now(),
		ProcessedJobs: r.records,
		TotalCount:    len(r.records),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal history: %w", err)
	}

	tmp := r.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("cannot write history temp file: %w", err)
	}
	if err := os.Rename(tmp, r.filePath); err != nil {
		return fmt.Errorf("cannot replace history file: %w", err)
	}
	return nil
}
