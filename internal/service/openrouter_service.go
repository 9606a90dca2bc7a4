package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/job-agent/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// TailoredApplication is what comes back from the downstream AI step for an
// accepted posting: tailored documents plus a 0-10 fit score.
type TailoredApplication struct {
	ResumeText      string
	CoverLetterText string
	FitScore        float64
	FitAnalysis     string
}

// ApplicationTailor is the downstream tailoring/scoring interface the
// pipeline consumes. The calls themselves are a collaborator concern; the
// pipeline only acts on the returned fit score.
type ApplicationTailor interface {
	TailorAndScore(ctx context.Context, jobTitle, companyName, jobDescription, baseResumeText string) (*TailoredApplication, error)
}

// OpenRouterService tailors an application and scores its fit in one chat
// completion via OpenRouter.
type OpenRouterService struct {
	APIKey  string
	Model   string
	BaseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

func NewOpenRouterService(minInterval time.Duration) *OpenRouterService {
	cfg := config.LoadOpenRouterConfig()
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &OpenRouterService{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: "https://openrouter.ai/api/v1/chat/completions",
		client:  resty.New().SetTimeout(90 * time.Second),
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

func (s *OpenRouterService) TailorAndScore(ctx context.Context, jobTitle, companyName, jobDescription, baseResumeText string) (*TailoredApplication, error) {
	prompt := fmt.Sprintf(`
You are an expert career assistant. Tailor the candidate's resume to the job below,
write a short cover letter, and score how well the tailored resume fits the job.

Return your answer STRICTLY in JSON format with this schema:
{
  "tailored_resume": "<full tailored resume text>",
  "cover_letter": "<cover letter text addressed to the company>",
  "fit_score": <float with 1 decimal place, range 0-10>,
  "fit_analysis": "<short explanation of the score>"
}

Job title: %s
Company: %s

Job description:
%s

Base resume:
%s
`, jobTitle, companyName, jobDescription, baseResumeText)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"model": s.Model,
			"messages": []map[string]string{
				{"role": "system", "content": "You are an AI assistant tailoring and scoring job applications."},
				{"role": "user", "content": prompt},
			},
		}).
		Post(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openrouter returned status %d: %s", resp.StatusCode(), resp.String())
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return nil, fmt.Errorf("no response from LLM")
	}

	result := &TailoredApplication{
		ResumeText:      gjson.Get(text, "tailored_resume").String(),
		CoverLetterText: gjson.Get(text, "cover_letter").String(),
		FitScore:        gjson.Get(text, "fit_score").Float(),
		FitAnalysis:     gjson.Get(text, "fit_analysis").String(),
	}
	if result.ResumeText == "" {
		return nil, fmt.Errorf("LLM response missing tailored_resume")
	}
	return result, nil
}
