package service

import (
	"context"
	"time"

	"github.com/olegrjumin/sitescan/internal/scanner"
)

// Stream stage names beyond the pipeline stages
const (
	StageStart = "start"
	StageError = "error"
)

// StreamEvent represents a progressive event during a scan
type StreamEvent struct {
	Stage   string      `json:"stage"`   // "start", a pipeline stage, "complete" or "error"
	Message string      `json:"message"` // Human-readable message
	Data    interface{} `json:"data"`    // Stage-specific data or final report
}

// ErrorBody is the structured payload of a failed scan
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewErrorBody describes err for a client
func NewErrorBody(err error) ErrorBody {
	kind := scanner.KindOf(err)
	if kind == "" {
		kind = scanner.KindFetchError
	}
	return ErrorBody{Error: kind, Message: err.Error()}
}

var stageMessages = map[scanner.Stage]string{
	scanner.StageFetching:  "Fetching page...",
	scanner.StageParsing:   "Parsing document...",
	scanner.StageAnalyzing: "Analyzing text, scripts and links...",
	scanner.StageScoring:   "Scoring findings...",
}

// ScanStreaming runs a scan and emits progressive events in real-time
// The channel is closed after the final "complete" or "error" event.
// Streaming scans are never coalesced; each one reports its own stages.
func (s *Service) ScanStreaming(ctx context.Context, rawURL string, opts *ScanOptions) <-chan StreamEvent {
	events := make(chan StreamEvent, 10)

	go func() {
		defer close(events)

		sendEvent(ctx, events, StageStart, "Starting scan...", map[string]string{"url": rawURL})

		timeout := s.mergeOptions(opts).Timeout
		req, err := scanner.NewScanRequest(rawURL, timeout)
		if err != nil {
			sendEvent(ctx, events, StageError, err.Error(), NewErrorBody(err))
			return
		}

		s.logger.Info("Scan streaming request", "url", req.URL(), "timeout_ms", timeout.Milliseconds())
		startTime := time.Now()

		rep, err := s.scanner.ScanObserved(ctx, req, func(stage scanner.Stage) {
			// complete is sent below, carrying the report
			if stage == scanner.StageComplete {
				return
			}
			sendEvent(ctx, events, string(stage), stageMessages[stage], nil)
		})
		s.logResult(req.URL(), rep, err, time.Since(startTime))

		if err != nil {
			sendEvent(ctx, events, StageError, err.Error(), NewErrorBody(err))
			return
		}
		sendEvent(ctx, events, string(scanner.StageComplete), "Scan complete", rep)
	}()

	return events
}

// sendEvent delivers an event unless the consumer has gone away
func sendEvent(ctx context.Context, events chan<- StreamEvent, stage, message string, data interface{}) {
	select {
	case events <- StreamEvent{
		Stage:   stage,
		Message: message,
		Data:    data,
	}:
	case <-ctx.Done():
	}
}
