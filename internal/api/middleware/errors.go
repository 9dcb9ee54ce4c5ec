package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/tpaulino/pushrelay/internal/api/models"
)

// writeError writes a flat {"error": ...} response. Implemented here rather
// than in the response package to avoid an import cycle.
func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	if requestID := GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: detail})
}
