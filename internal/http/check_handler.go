package http

import (
	"context"
	"net/http"
	"time"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

// CheckRunner runs one full price-check cycle over every tracked product.
type CheckRunner interface {
	RunCheckCycle(ctx context.Context) (domain.CycleReport, error)
}

type CheckHandler struct {
	checker CheckRunner
	timeout time.Duration
}

func NewCheckHandler(checker CheckRunner, timeout time.Duration) *CheckHandler {
	return &CheckHandler{
		checker: checker,
		timeout: timeout,
	}
}

type CheckResultDTO struct {
	URL     string `json:"url"`
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
}

type CycleReportResponse struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Checked    int              `json:"checked"`
	Results    []CheckResultDTO `json:"results"`
}

// Run handles POST /api/v1/products/check-prices. A cycle over many products
// can be slow, so it gets a longer timeout than the CRUD handlers.
func (h *CheckHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report, err := h.checker.RunCheckCycle(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]CheckResultDTO, len(report.Results))
	for i, res := range report.Results {
		results[i] = CheckResultDTO{
			URL:     res.URL,
			Outcome: string(res.Outcome),
			Message: res.Message,
		}
	}

	respondJSON(w, http.StatusOK, CycleReportResponse{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Checked:    len(report.Results),
		Results:    results,
	})
}
