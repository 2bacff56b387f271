package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fundsight/fundsight"
	"github.com/fundsight/fundsight/internal/database"
	"github.com/fundsight/fundsight/internal/log"
)

// MetricsRouter handles fund performance metric endpoints.
type MetricsRouter struct {
	client *fundsight.Client
	logger *log.Logger
}

// NewMetricsRouter creates a new MetricsRouter.
func NewMetricsRouter(client *fundsight.Client) *MetricsRouter {
	return &MetricsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for metrics endpoints.
func (mr *MetricsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{fund_id}", mr.Get)

	return router
}

// Get handles GET /api/metrics/{fund_id}.
func (mr *MetricsRouter) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fundID, err := strconv.ParseInt(chi.URLParam(r, "fund_id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid fund id")
		return
	}

	if _, err := mr.client.Funds.Get(ctx, fundID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Fund not found")
		} else {
			writeDetail(w, http.StatusInternalServerError, "Failed to load fund")
		}
		return
	}

	metrics, err := mr.client.Metrics.CalculateAll(ctx, fundID)
	if err != nil {
		mr.logger.Error("metrics calculation failed", "fund_id", fundID, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to calculate metrics")
		return
	}

	writeJSON(w, http.StatusOK, MetricsResponse{
		FundID:  fundID,
		Metrics: metrics,
	})
}
