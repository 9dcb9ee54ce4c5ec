package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tpaulino/pushrelay/internal/api/middleware"
	"github.com/tpaulino/pushrelay/internal/api/models"
	"github.com/tpaulino/pushrelay/internal/api/response"
	"github.com/tpaulino/pushrelay/internal/push"
	"github.com/tpaulino/pushrelay/internal/subscription"
)

// PushHandler handles subscription registration and broadcast endpoints.
type PushHandler struct {
	store      *subscription.Store
	dispatcher *push.Dispatcher
	vapidKey   string
	metrics    *middleware.BroadcastMetrics
}

// PushHandlerConfig holds configuration for the push handler.
type PushHandlerConfig struct {
	Store          *subscription.Store
	Dispatcher     *push.Dispatcher
	VAPIDPublicKey string
	// Metrics is optional; nil disables broadcast metrics.
	Metrics *middleware.BroadcastMetrics
}

// NewPushHandler creates a new PushHandler.
func NewPushHandler(cfg PushHandlerConfig) *PushHandler {
	return &PushHandler{
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		vapidKey:   cfg.VAPIDPublicKey,
		metrics:    cfg.Metrics,
	}
}

// VAPIDKey handles GET /api/push/vapid-key - the public key clients use to
// negotiate a push subscription.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.VAPIDKey{PublicKey: h.vapidKey})
}

// Subscribe handles POST /api/push/subscribe - register or refresh a device
// subscription. Clients call this on every app load, which is what rebuilds
// the store after a restart without durable storage.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var input models.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body")
		return
	}

	if input.Subscription.Endpoint == "" {
		response.BadRequest(w, r, "Invalid subscription")
		return
	}

	result := h.store.Upsert(r.Context(), &subscription.Subscription{
		Endpoint:   input.Subscription.Endpoint,
		Keys:       input.Subscription.Keys,
		DeviceName: input.DeviceName,
	})

	response.JSON(w, r, http.StatusOK, models.SubscribeResponse{
		OK:        true,
		Persisted: result.Persisted,
	})
}

// Unsubscribe handles POST /api/push/unsubscribe. Removing an unknown
// endpoint still succeeds.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var input models.UnsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body")
		return
	}

	h.store.Remove(r.Context(), input.Endpoint)
	response.JSON(w, r, http.StatusOK, models.OKResponse{OK: true})
}

// Send handles POST /api/push/send - broadcast one notification to every
// subscriber. The route is guarded by the APIKey middleware, so by the time
// this runs the caller is authorized.
func (h *PushHandler) Send(w http.ResponseWriter, r *http.Request) {
	var input models.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body")
		return
	}

	if input.Title == "" || input.Body == "" {
		response.BadRequest(w, r, "title and body required")
		return
	}

	start := time.Now()
	report, err := h.dispatcher.Dispatch(r.Context(), push.Message{
		Title: input.Title,
		Body:  input.Body,
		Tag:   input.Tag,
		URL:   input.URL,
	})
	if err != nil {
		response.InternalError(w, r, "broadcast failed")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordBroadcast(r, report.Sent, report.Failed, report.Removed, time.Since(start))
	}

	response.JSON(w, r, http.StatusOK, models.SendResponse{
		OK:     true,
		Sent:   report.Sent,
		Failed: report.Failed,
		Total:  report.Total,
	})
}
