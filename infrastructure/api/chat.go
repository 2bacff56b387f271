package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fundsight/fundsight"
	"github.com/fundsight/fundsight/internal/log"
)

// ChatRouter handles the question answering endpoint.
type ChatRouter struct {
	client *fundsight.Client
	logger *log.Logger
}

// NewChatRouter creates a new ChatRouter.
func NewChatRouter(client *fundsight.Client) *ChatRouter {
	return &ChatRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for chat endpoints.
func (cr *ChatRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", cr.Ask)

	return router
}

// Ask handles POST /api/chat.
func (cr *ChatRouter) Ask(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := cr.client.Query.Process(r.Context(), body.Query, body.FundID)
	if err != nil {
		cr.logger.Error("chat query failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to process query")
		return
	}

	writeJSON(w, http.StatusOK, toChatResponse(resp))
}
