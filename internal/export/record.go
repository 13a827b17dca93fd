package export

import (
	"time"

	"github.com/olegrjumin/sitescan/internal/report"
)

// Record is the outcome of scanning one URL in a batch: either a report or
// the error that prevented one
type Record struct {
	RunID        string             `json:"run_id"`
	URL          string             `json:"url"`
	ScannedAt    time.Time          `json:"scanned_at"`
	DurationMs   int64              `json:"duration_ms"`
	Report       *report.ScanReport `json:"report,omitempty"`
	ErrorKind    string             `json:"error,omitempty"`
	ErrorMessage string             `json:"message,omitempty"`
}

// Failed reports whether the scan produced no report
func (r Record) Failed() bool { return r.Report == nil }
