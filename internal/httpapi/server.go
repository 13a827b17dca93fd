package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/service"
)

// serviceName is reported by /health
const serviceName = "sitescan-api"

// Limits configures request rate limiting; RPS <= 0 disables it
type Limits struct {
	RPS   float64
	Burst int
}

// NewServer creates and configures a new HTTP server
func NewServer(addr string, logger *logging.Logger, svc *service.Service, limits Limits) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(logger, svc, limits),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed, middleware-wrapped handler
func NewHandler(logger *logging.Logger, svc *service.Service, limits Limits) http.Handler {
	// Create a new router (multiplexer) to handle different routes
	mux := http.NewServeMux()

	// Health is never rate limited
	mux.HandleFunc("/health", healthHandler(svc))

	scans := http.NewServeMux()
	scans.HandleFunc("/scan", scanHandler(svc))
	scans.HandleFunc("/scan/stream", streamHandler(svc))

	limited := rateLimitMiddleware(limits, scans)
	mux.Handle("/scan", limited)
	mux.Handle("/scan/stream", limited)

	// request ID first so the logging middleware can report it
	return requestIDMiddleware(loggingMiddleware(logger, mux))
}

// healthHandler handles GET requests to /health
func healthHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":            "ok",
			"service":           serviceName,
			"reference_version": svc.ReferenceVersion(),
		})
	}
}

// writeJSON is a helper function to write JSON responses
// It sets the correct Content-Type header and encodes the data as JSON
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// The status line is already out; an encode failure can only be a dropped client
	_ = json.NewEncoder(w).Encode(data)
}
