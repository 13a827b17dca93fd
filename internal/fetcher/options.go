package fetcher

import (
	"time"

	"github.com/olegrjumin/sitescan/internal/httpclient"
)

// Defaults for a single fetch
const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRedirects = 5
	DefaultMaxBodyBytes = 5 * 1024 * 1024
)

// Options holds the limits applied to one fetch
type Options struct {
	// Timeout is the wall-clock budget for the whole redirect chain and body read
	Timeout time.Duration

	// MaxRedirects is the maximum number of redirects to follow (0 = none)
	MaxRedirects int

	// MaxBodyBytes caps the bytes kept from the final response body
	MaxBodyBytes int64

	// UserAgent is the User-Agent header to send
	UserAgent string
}

// DefaultOptions returns Options with sensible defaults
func DefaultOptions() Options {
	return Options{
		Timeout:      DefaultTimeout,
		MaxRedirects: DefaultMaxRedirects,
		MaxBodyBytes: DefaultMaxBodyBytes,
		UserAgent:    httpclient.DefaultUserAgent,
	}
}

// withDefaults fills in unset or invalid values
func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRedirects < 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.UserAgent == "" {
		o.UserAgent = httpclient.DefaultUserAgent
	}
	return o
}
