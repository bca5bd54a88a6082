package health

import (
	"encoding/json"
	"net/http"
)

// Engagement modes reported by the health endpoint.
const (
	ModeLive = "live"
	ModeMock = "mock"
)

// Response is the payload for the health endpoint.
type Response struct {
	Status     string `json:"status"`
	Engagement string `json:"engagement"`
}

// Handler returns a plain HTTP handler for the health check endpoint.
// mode tells operators whether actions reach the real platform.
func Handler(mode string) http.HandlerFunc {
	body := Response{Status: "healthy", Engagement: mode}
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(body)
	}
}
