package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadilmartias/job-agent/internal/config"
	"github.com/fadilmartias/job-agent/internal/dto"
	"github.com/fadilmartias/job-agent/internal/repository"
	"github.com/fadilmartias/job-agent/internal/service"
	"github.com/fadilmartias/job-agent/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type offlineProvider struct{}

func (offlineProvider) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding backend offline")
}

type staticTailor struct{}

func (staticTailor) TailorAndScore(context.Context, string, string, string, string) (*service.TailoredApplication, error) {
	return &service.TailoredApplication{ResumeText: "tailored", FitScore: 9.0}, nil
}

func newTestApp(t *testing.T, maxJobs, scrapeCap int) *fiber.App {
	t.Helper()
	dir := t.TempDir()

	history := repository.NewHistoryRepository(filepath.Join(dir, "processed_jobs.json"))
	ledger := service.NewLedgerService(history, maxJobs, scrapeCap, 30*24*time.Hour, dir)
	cache := repository.NewEmbeddingCacheRepository(filepath.Join(dir, "cache.json"))
	embeddings := service.NewEmbeddingService(offlineProvider{}, cache)
	detector := service.NewRoleDetector([]config.RoleEntry{
		{Name: "Software Engineer", Aliases: []string{"Backend Developer"}},
	}, embeddings, 0.80)
	analyzer := service.NewWorkPermitAnalyzer(
		[]string{"must have valid work permit"},
		[]string{"visa sponsorship available"},
		[]string{"Germany"},
		"Nigeria",
	)
	uc := usecase.NewIntakeUsecase(ledger, detector, analyzer, staticTailor{}, 8.5, filepath.Join(dir, "base_resumes"))

	app := fiber.New()
	NewIntakeHandler(uc, history, 90*24*time.Hour).RegisterRoutes(app)
	return app
}

func TestEvaluateRouteEnforcesSessionQuota(t *testing.T) {
	app := newTestApp(t, 5, 1)

	send := func(id string) int {
		body, err := json.Marshal(dto.PostingRequest{
			JobID:       id,
			Title:       "Software Engineer",
			Company:     "Acme " + id,
			Location:    "Lagos, Nigeria",
			Description: "Build backend services.",
			Link:        "https://jobs.example/" + id,
		})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/jobs/evaluate", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, send("j1"))
	// The scrape cap is spent; one-at-a-time submissions cannot bypass it.
	assert.Equal(t, fiber.StatusTooManyRequests, send("j2"))
}
