package handler

import (
	"fmt"
	"time"

	"github.com/fadilmartias/job-agent/internal/dto"
	"github.com/fadilmartias/job-agent/internal/middleware"
	"github.com/fadilmartias/job-agent/internal/model"
	"github.com/fadilmartias/job-agent/internal/repository"
	"github.com/fadilmartias/job-agent/internal/response"
	"github.com/fadilmartias/job-agent/internal/usecase"
	"github.com/fadilmartias/job-agent/internal/util"
	"github.com/gofiber/fiber/v2"
)

type IntakeHandler struct {
	uc        *usecase.IntakeUsecase
	history   *repository.HistoryRepository
	retention time.Duration
}

func NewIntakeHandler(uc *usecase.IntakeUsecase, history *repository.HistoryRepository, retention time.Duration) *IntakeHandler {
	return &IntakeHandler{uc: uc, history: history, retention: retention}
}

func (h *IntakeHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/jobs/evaluate", middleware.RateLimiter(10, 1*time.Minute), h.Evaluate)
	app.Post("/jobs/batch", middleware.RateLimiter(2, 1*time.Minute), h.Batch)
	app.Post("/jobs/:id/outcome", h.Outcome)
	app.Get("/history", h.History)
	app.Post("/history/cleanup", h.Cleanup)
	app.Get("/session/summary", h.SessionSummary)
	app.Post("/session/end", h.EndSession)
}

func (h *IntakeHandler) Evaluate(c *fiber.Ctx) error {
	var req dto.PostingRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid posting payload",
		}, err)
	}

	// Single postings count against the same session caps as batches.
	if h.uc.QuotaExhausted() {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusTooManyRequests,
			Message: "session quota exhausted",
		})
	}

	// Validation happens inside the usecase so that identified but
	// incomplete postings still land in the history ledger.
	result := h.uc.Evaluate(c.Context(), req.ToModel())
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Posting evaluated",
		Data:    result,
	})
}

func (h *IntakeHandler) Batch(c *fiber.Ctx) error {
	var req dto.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid batch payload",
		}, err)
	}
	if len(req.Postings) == 0 {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "batch contains no postings",
		})
	}

	postings := make([]model.Posting, 0, len(req.Postings))
	for _, p := range req.Postings {
		postings = append(postings, p.ToModel())
	}

	results := h.uc.ProcessBatch(c.Context(), postings)
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: fmt.Sprintf("Processed %d of %d postings", len(results), len(postings)),
		Data:    results,
	})
}

func (h *IntakeHandler) Outcome(c *fiber.Ctx) error {
	jobID := c.Params("id")

	var req dto.OutcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid outcome payload",
		}, err)
	}
	switch req.Outcome {
	case model.OutcomeReadyToApply, model.OutcomeIgnored, model.OutcomeError:
	default:
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnprocessableEntity,
			Message: "invalid outcome",
			Details: util.NewFormError(fmt.Sprintf("unknown outcome %q", req.Outcome), map[string]string{
				"outcome": "must be ready_to_apply, ignored or error",
			}),
		})
	}

	if err := h.uc.RecordFinalOutcome(jobID, req.Outcome, req.Reason); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "cannot record outcome",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Outcome recorded",
	})
}

func (h *IntakeHandler) History(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	records, total := h.history.List(page, pageSize)
	data := make([]dto.HistoryRecordDTO, 0, len(records))
	for _, rec := range records {
		data = append(data, dto.HistoryRecordFromModel(rec))
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get history",
		Data:       data,
		Pagination: response.NewPagination(page, pageSize, total),
	})
}

func (h *IntakeHandler) Cleanup(c *fiber.Ctx) error {
	retention := h.retention
	if days := c.QueryInt("days", 0); days > 0 {
		retention = time.Duration(days) * 24 * time.Hour
	}

	removed, err := h.uc.CleanupHistory(retention)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "history cleanup failed",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "History cleanup complete",
		Data:    fiber.Map{"removed": removed},
	})
}

func (h *IntakeHandler) SessionSummary(c *fiber.Ctx) error {
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get session summary",
		Data:    h.uc.SessionSummary(),
	})
}

func (h *IntakeHandler) EndSession(c *fiber.Ctx) error {
	summary, err := h.uc.EndSession()
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to end session",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Session ended",
		Data:    summary,
	})
}
