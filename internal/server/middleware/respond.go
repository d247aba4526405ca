package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/bookmarks/pkg/api"
)

// writeError пишет ошибку в том же JSON формате, что и handlers
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
