package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/service"
)

const (
	// maxRequestBytes bounds the JSON body of POST /scan
	maxRequestBytes = 64 << 10

	// maxTimeout is the largest per-request timeout a client may ask for
	maxTimeout = 60 * time.Second

	errorInvalidRequest = "invalid_request"
	errorRateLimited    = "rate_limited"
)

// scanRequest represents the JSON request body for /scan
type scanRequest struct {
	URL       string `json:"url"`
	TimeoutMs *int   `json:"timeout_ms,omitempty"`
}

// scanHandler handles POST requests to /scan
// Accepts a JSON body with a URL and an optional timeout, returns the report
func scanHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, service.ErrorBody{
				Error:   errorInvalidRequest,
				Message: "method not allowed",
			})
			return
		}

		var req scanRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, service.ErrorBody{
				Error:   errorInvalidRequest,
				Message: "invalid JSON body",
			})
			return
		}

		if strings.TrimSpace(req.URL) == "" {
			writeJSON(w, http.StatusBadRequest, service.ErrorBody{
				Error:   scanner.KindInvalidURL,
				Message: "url is required",
			})
			return
		}

		opts, err := scanOptions(req.TimeoutMs)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, service.ErrorBody{
				Error:   errorInvalidRequest,
				Message: err.Error(),
			})
			return
		}

		rep, err := svc.Scan(r.Context(), req.URL, opts)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, rep)
	}
}

// streamHandler handles SSE streaming of a scan's progress
func streamHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// EventSource only supports GET
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, service.ErrorBody{
				Error:   errorInvalidRequest,
				Message: "method not allowed",
			})
			return
		}

		query := r.URL.Query()
		url := strings.TrimSpace(query.Get("url"))
		if url == "" {
			writeJSON(w, http.StatusBadRequest, service.ErrorBody{
				Error:   scanner.KindInvalidURL,
				Message: "url is required",
			})
			return
		}

		var timeoutMs *int
		if raw := query.Get("timeout_ms"); raw != "" {
			ms, err := strconv.Atoi(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, service.ErrorBody{
					Error:   errorInvalidRequest,
					Message: "timeout_ms must be an integer",
				})
				return
			}
			timeoutMs = &ms
		}
		opts, err := scanOptions(timeoutMs)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, service.ErrorBody{
				Error:   errorInvalidRequest,
				Message: err.Error(),
			})
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeJSON(w, http.StatusInternalServerError, service.ErrorBody{
				Error:   errorInvalidRequest,
				Message: "streaming not supported",
			})
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for event := range svc.ScanStreaming(r.Context(), url, opts) {
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\n", event.Stage)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// scanOptions converts an optional millisecond timeout into service options
func scanOptions(timeoutMs *int) (*service.ScanOptions, error) {
	if timeoutMs == nil {
		return nil, nil
	}
	// bounds are checked before the conversion so huge values cannot wrap
	if *timeoutMs <= 0 || int64(*timeoutMs) > maxTimeout.Milliseconds() {
		return nil, fmt.Errorf("timeout_ms must be between 1 and %d", maxTimeout.Milliseconds())
	}
	return &service.ScanOptions{Timeout: time.Duration(*timeoutMs) * time.Millisecond}, nil
}

// statusFor maps a scan error kind onto an HTTP status
func statusFor(kind string) int {
	switch kind {
	case scanner.KindInvalidURL:
		return http.StatusBadRequest
	case scanner.KindMalformedDocument:
		return http.StatusUnprocessableEntity
	case scanner.KindFetchTimeout:
		return http.StatusGatewayTimeout
	case scanner.KindTooManyRedirects, scanner.KindFetchError:
		return http.StatusBadGateway
	case scanner.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := service.NewErrorBody(err)
	writeJSON(w, statusFor(body.Error), body)
}
