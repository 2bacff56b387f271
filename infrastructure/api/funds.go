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

// FundsRouter handles fund listing endpoints.
type FundsRouter struct {
	client *fundsight.Client
	logger *log.Logger
}

// NewFundsRouter creates a new FundsRouter.
func NewFundsRouter(client *fundsight.Client) *FundsRouter {
	return &FundsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for fund endpoints.
func (fr *FundsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", fr.List)
	router.Get("/{id}", fr.Get)

	return router
}

// List handles GET /api/funds.
func (fr *FundsRouter) List(w http.ResponseWriter, r *http.Request) {
	funds, err := fr.client.Funds.List(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to list funds")
		return
	}

	out := make([]FundResponse, 0, len(funds))
	for _, f := range funds {
		out = append(out, toFundResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/funds/{id}.
func (fr *FundsRouter) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid fund id")
		return
	}

	f, err := fr.client.Funds.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Fund not found")
		} else {
			writeDetail(w, http.StatusInternalServerError, "Failed to load fund")
		}
		return
	}

	writeJSON(w, http.StatusOK, toFundResponse(f))
}
