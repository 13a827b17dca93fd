package httpclient

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

// DefaultUserAgent is sent when the caller does not provide one
const DefaultUserAgent = "sitescan/1.0"

// Config holds transport-level settings for the client
type Config struct {
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	// Insecure skips certificate verification (tests and lab use only)
	Insecure bool

	// AllowPrivateNetworks permits dialing loopback and private ranges
	AllowPrivateNetworks bool
}

// DefaultConfig returns the production transport settings
func DefaultConfig() Config {
	return Config{
		DialTimeout:           5 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}
}

// Client wraps http.Client and provides methods for making traced requests
type Client struct {
	httpClient *http.Client
}

// TimingInfo holds performance timing information for a request
type TimingInfo struct {
	DNSStart     time.Time
	DNSDone      time.Time
	ConnectStart time.Time
	ConnectDone  time.Time
	TLSStart     time.Time
	TLSDone      time.Time
	GotFirstByte time.Time
	RequestStart time.Time
	RequestDone  time.Time
}

// Response holds the HTTP response along with timing information
// Body is left open; the caller must close it
type Response struct {
	StatusCode int
	Proto      string // e.g., "HTTP/2.0"
	Header     http.Header
	TLS        *tls.ConnectionState
	Timings    *TimingInfo
	Body       io.ReadCloser
}

// NewClient creates a new HTTP client with the configured transport
func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: NewTransport(cfg),
			// Don't follow redirects automatically - the fetcher walks the chain itself
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Do performs an HTTP request with tracing enabled
// Returns the response (with an open body) or any transport error
func (c *Client) Do(ctx context.Context, method, url, userAgent string) (*Response, error) {
	rec := &traceRecorder{}
	rec.mark(&rec.timings.RequestStart)

	trace := &httptrace.ClientTrace{
		DNSStart:             func(httptrace.DNSStartInfo) { rec.mark(&rec.timings.DNSStart) },
		DNSDone:              func(httptrace.DNSDoneInfo) { rec.mark(&rec.timings.DNSDone) },
		ConnectStart:         func(_, _ string) { rec.mark(&rec.timings.ConnectStart) },
		ConnectDone:          func(_, _ string, _ error) { rec.mark(&rec.timings.ConnectDone) },
		TLSHandshakeStart:    func() { rec.mark(&rec.timings.TLSStart) },
		TLSHandshakeDone:     func(tls.ConnectionState, error) { rec.mark(&rec.timings.TLSDone) },
		GotFirstResponseByte: func() { rec.mark(&rec.timings.GotFirstByte) },
	}

	req, err := http.NewRequestWithContext(
		httptrace.WithClientTrace(ctx, trace),
		method,
		url,
		nil,
	)
	if err != nil {
		return nil, err
	}

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Headers are in; the body may still be streaming
	rec.mark(&rec.timings.RequestDone)
	timings := rec.snapshot()

	return &Response{
		StatusCode: resp.StatusCode,
		Proto:      resp.Proto,
		Header:     resp.Header,
		TLS:        resp.TLS,
		Timings:    &timings,
		Body:       resp.Body,
	}, nil
}

// traceRecorder collects trace timestamps. Dials raced by the transport can
// report after Do has returned, so every write and the final copy hold mu.
type traceRecorder struct {
	mu      sync.Mutex
	timings TimingInfo
}

func (r *traceRecorder) mark(field *time.Time) {
	now := time.Now()
	r.mu.Lock()
	*field = now
	r.mu.Unlock()
}

func (r *traceRecorder) snapshot() TimingInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timings
}
