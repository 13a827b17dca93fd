package fetcher

import (
	"time"

	"github.com/olegrjumin/sitescan/internal/httpclient"
)

// Timings breaks down the final hop. Phases skipped on a reused or plain
// HTTP connection stay zero.
type Timings struct {
	DNS       time.Duration
	Connect   time.Duration
	TLS       time.Duration
	FirstByte time.Duration
}

// ExtractTimings converts the raw trace timestamps into phase durations
func ExtractTimings(ti *httpclient.TimingInfo) Timings {
	if ti == nil {
		return Timings{}
	}
	return Timings{
		DNS:       span(ti.DNSStart, ti.DNSDone),
		Connect:   span(ti.ConnectStart, ti.ConnectDone),
		TLS:       span(ti.TLSStart, ti.TLSDone),
		FirstByte: span(ti.RequestStart, ti.GotFirstByte),
	}
}

func span(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}
