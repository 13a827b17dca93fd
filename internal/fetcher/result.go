package fetcher

import "time"

// Result is the outcome of a successful fetch
// It is owned by one pipeline run and dropped once the page is parsed
type Result struct {
	RequestedURL    string
	FinalURL        string
	Status          int
	HTTPVersion     string
	ContentType     string
	ContentEncoding string
	Body            []byte

	// Truncated is set when the body exceeded MaxBodyBytes and was cut
	Truncated bool

	// RedirectChain lists every URL requested, the first being RequestedURL
	// and the last FinalURL
	RedirectChain []string

	Duration time.Duration
	Timings  Timings
	TLS      *TLSInfo
}

// Location returns the URL relative references in the body resolve against
func (r *Result) Location() string { return r.FinalURL }

// MIMEType returns the Content-Type header as received, parameters included,
// so the parser can pick up a charset
func (r *Result) MIMEType() string { return r.ContentType }

// Bytes returns the (possibly truncated) body
func (r *Result) Bytes() []byte { return r.Body }
