// Package handler provides HTTP handlers for the relay API.
package handler

import (
	"net/http"

	"github.com/tpaulino/pushrelay/internal/api/models"
	"github.com/tpaulino/pushrelay/internal/api/response"
	"github.com/tpaulino/pushrelay/internal/subscription"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	store *subscription.Store
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(store *subscription.Store) *OpsHandler {
	return &OpsHandler{store: store}
}

// HealthCheck handles GET /api/health.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:      "ok",
		Push:        true,
		Subscribers: h.store.Len(),
		Persisted:   h.store.Persistent(),
	}
	response.JSON(w, r, http.StatusOK, health)
}
