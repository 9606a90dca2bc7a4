package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadilmartias/job-agent/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(t *testing.T) (*HistoryRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "processed_jobs.json")
	return NewHistoryRepository(path), path
}

func record(id, title, company, link string, age time.Duration) model.HistoryRecord {
	return model.HistoryRecord{
		JobID:       id,
		Title:       title,
		Company:     company,
		Link:        link,
		Outcome:     model.OutcomeIgnored,
		ProcessedAt: time.Now().Add(-age),
	}
}

func TestHistoryRepositoryPutGet(t *testing.T) {
	repo, _ := newTestHistory(t)

	rec := record("j1", "Software Engineer", "Acme", "https://jobs/1", 0)
	require.NoError(t, repo.Put(rec))

	got, ok := repo.Get("j1")
	require.True(t, ok)
	assert.Equal(t, "Acme", got.Company)

	_, ok = repo.Get("j2")
	assert.False(t, ok)
}

func TestHistoryRepositoryReload(t *testing.T) {
	repo, path := newTestHistory(t)
	require.NoError(t, repo.Put(record("j1", "Software Engineer", "Acme", "https://jobs/1", 0)))

	reloaded := NewHistoryRepository(path)
	got, ok := reloaded.Get("j1")
	require.True(t, ok)
	assert.Equal(t, "Software Engineer", got.Title)
	assert.Equal(t, 1, reloaded.Count())
}

func TestHistoryRepositoryLinkLookup(t *testing.T) {
	repo, _ := newTestHistory(t)
	require.NoError(t, repo.Put(record("j1", "Software Engineer", "Acme", "https://jobs/1", 0)))

	assert.True(t, repo.HasLink("https://jobs/1"))
	assert.False(t, repo.HasLink("https://jobs/2"))
}

func TestHistoryRepositorySignatureLookup(t *testing.T) {
	repo, _ := newTestHistory(t)
	require.NoError(t, repo.Put(record("j1", "Software Engineer", "Acme", "https://jobs/1", 0)))
	require.NoError(t, repo.Put(record("j2", "Data Analyst", "Acme", "https://jobs/2", 0)))

	matches := repo.FindBySignature(model.JobSignature("  software ENGINEER ", "ACME"))
	require.Len(t, matches, 1)
	assert.Equal(t, "j1", matches[0].JobID)

	assert.Empty(t, repo.FindBySignature(model.JobSignature("Software Engineer", "Other")))
}

func TestHistoryRepositoryPurge(t *testing.T) {
	repo, _ := newTestHistory(t)
	require.NoError(t, repo.Put(record("old", "Software Engineer", "Acme", "https://jobs/old", 100*24*time.Hour)))
	require.NoError(t, repo.Put(record("new", "Software Engineer", "Beta", "https://jobs/new", time.Hour)))

	removed, err := repo.PurgeOlderThan(time.Now().Add(-90 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := repo.Get("old")
	assert.False(t, ok)
	_, ok = repo.Get("new")
	assert.True(t, ok)
}

func TestHistoryRepositoryList(t *testing.T) {
	repo, _ := newTestHistory(t)
	require.NoError(t, repo.Put(record("a", "Role A", "Acme", "https://jobs/a", 3*time.Hour)))
	require.NoError(t, repo.Put(record("b", "Role B", "Acme", "https://jobs/b", 2*time.Hour)))
	require.NoError(t, repo.Put(record("c", "Role C", "Acme", "https://jobs/c", time.Hour)))

	page, total := repo.List(1, 2)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, "c", page[0].JobID)
	assert.Equal(t, "b", page[1].JobID)

	page, _ = repo.List(2, 2)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].JobID)

	page, _ = repo.List(5, 2)
	assert.Empty(t, page)
}

func TestHistoryRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_jobs.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0644))

	repo := NewHistoryRepository(path)
	assert.Equal(t, 0, repo.Count())
	require.NoError(t, repo.Put(record("j1", "Software Engineer", "Acme", "https://jobs/1", 0)))
	assert.Equal(t, 1, repo.Count())
}
