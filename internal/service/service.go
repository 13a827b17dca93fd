package service

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/report"
	"github.com/olegrjumin/sitescan/internal/scanner"
)

// Options are the service-wide defaults
type Options struct {
	// Timeout bounds one scan when the request does not set its own
	Timeout time.Duration

	// Coalesce shares one in-flight scan between concurrent callers asking
	// for the same URL with the same timeout
	Coalesce bool
}

// ScanOptions are per-request overrides; zero values keep the defaults
type ScanOptions struct {
	Timeout time.Duration
}

// Service provides the business logic layer for scanning
// It sits between the HTTP transport layer and the scanning pipeline
type Service struct {
	scanner *scanner.Scanner
	logger  *logging.Logger
	options Options
	flights singleflight.Group
}

// New creates a new Service instance
func New(sc *scanner.Scanner, logger *logging.Logger, opts Options) *Service {
	return &Service{
		scanner: sc,
		logger:  logger,
		options: opts,
	}
}

// ReferenceVersion reports the reference data version new scans will use
func (s *Service) ReferenceVersion() string {
	return s.scanner.ReferenceVersion()
}

// Scan validates rawURL and runs one scan
// This is the main entry point for the scanning use case
func (s *Service) Scan(ctx context.Context, rawURL string, opts *ScanOptions) (*report.ScanReport, error) {
	timeout := s.mergeOptions(opts).Timeout

	req, err := scanner.NewScanRequest(rawURL, timeout)
	if err != nil {
		s.logger.Warn("Rejected scan request", "url", rawURL, "error_kind", scanner.KindOf(err), "error", err)
		return nil, err
	}

	s.logger.Info("Scanning URL", "url", req.URL(), "timeout_ms", timeout.Milliseconds())
	startTime := time.Now()

	rep, err := s.run(ctx, req)
	s.logResult(req.URL(), rep, err, time.Since(startTime))
	return rep, err
}

// run executes the scan, sharing it with concurrent identical requests when enabled
func (s *Service) run(ctx context.Context, req scanner.ScanRequest) (*report.ScanReport, error) {
	if !s.options.Coalesce {
		return s.scanner.Scan(ctx, req)
	}

	key := req.URL() + "|" + req.Timeout().String()

	// The shared run must not die with whichever caller started it; the
	// scanner's own timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(key, func() (interface{}, error) {
		return s.scanner.Scan(shared, req)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		rep := *res.Val.(*report.ScanReport)
		if res.Shared {
			s.logger.Debug("Joined in-flight scan", "url", req.URL())
		}
		return &rep, nil
	case <-ctx.Done():
		return nil, scanner.ContextError(req.URL(), ctx.Err())
	}
}

// mergeOptions merges provided options with service defaults
// If opts is nil, returns service defaults
func (s *Service) mergeOptions(opts *ScanOptions) ScanOptions {
	merged := ScanOptions{Timeout: s.options.Timeout}
	if opts == nil {
		return merged
	}

	// Override with provided values (only if positive)
	if opts.Timeout > 0 {
		merged.Timeout = opts.Timeout
	}

	return merged
}

func (s *Service) logResult(url string, rep *report.ScanReport, err error, elapsed time.Duration) {
	if err != nil {
		s.logger.Error("Scan failed",
			"url", url,
			"error_kind", scanner.KindOf(err),
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
		return
	}
	s.logger.Info("Scan completed",
		"url", url,
		"verdict", rep.Verdict,
		"risk_score", rep.RiskScore,
		"duration_ms", elapsed.Milliseconds(),
	)
}
