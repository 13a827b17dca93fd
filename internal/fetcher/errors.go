package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/olegrjumin/sitescan/internal/httpclient"
)

// Error kind constants
const (
	ErrorNone             = "none"
	ErrorInvalidURL       = "invalid_url"
	ErrorTimeout          = "fetch_timeout"
	ErrorTooManyRedirects = "too_many_redirects"
	ErrorFetch            = "fetch_error"
)

// Detail values refine ErrorFetch
const (
	DetailDNS             = "dns_error"
	DetailTLS             = "tls_error"
	DetailNetwork         = "network_error"
	DetailCanceled        = "canceled"
	DetailBlockedAddress  = "blocked_address"
	DetailInvalidRedirect = "invalid_redirect"
)

// Sentinels for errors.Is; an *Error matches the sentinel of its Kind
var (
	ErrInvalidURL       = errors.New("invalid URL")
	ErrTimeout          = errors.New("fetch timeout")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrFetch            = errors.New("fetch failed")
)

// Error is the typed failure returned by Fetch
type Error struct {
	Kind   string // one of the Error* kinds
	URL    string // URL being fetched when the failure happened
	Detail string // sub-classification, e.g. dns_error
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind)
	if e.Detail != "" {
		b.WriteString(" (" + e.Detail + ")")
	}
	if e.URL != "" {
		b.WriteString(" " + e.URL)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTimeout) and friends work on wrapped *Error values
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidURL:
		return e.Kind == ErrorInvalidURL
	case ErrTimeout:
		return e.Kind == ErrorTimeout
	case ErrTooManyRedirects:
		return e.Kind == ErrorTooManyRedirects
	case ErrFetch:
		return e.Kind == ErrorFetch
	}
	return false
}

func invalidURL(rawURL, reason string) *Error {
	return &Error{Kind: ErrorInvalidURL, URL: rawURL, Err: errors.New(reason)}
}

// wrapError classifies err, letting the request context override the guess:
// once our deadline has passed every failure is a timeout
func wrapError(ctx context.Context, rawURL string, err error) *Error {
	kind, detail := ClassifyError(err)
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			kind, detail = ErrorTimeout, ""
		} else {
			kind, detail = ErrorFetch, DetailCanceled
		}
	}
	return &Error{Kind: kind, URL: rawURL, Detail: detail, Err: err}
}

// ClassifyError determines the error kind from a Go error
// Returns the kind constant and a detail sub-classification
func ClassifyError(err error) (string, string) {
	if err == nil {
		return ErrorNone, ""
	}

	// Check for timeout errors
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout, ""
	}
	if errors.Is(err, context.Canceled) {
		return ErrorFetch, DetailCanceled
	}
	if errors.Is(err, httpclient.ErrBlockedAddress) {
		return ErrorFetch, DetailBlockedAddress
	}

	// Check if it's a network error with Timeout() method
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout, ""
	}

	// Check for DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorFetch, DetailDNS
	}

	// Check for TLS/certificate errors
	var certErr *tls.CertificateVerificationError
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &authErr) || errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr) || errors.As(err, &recordErr) {
		return ErrorFetch, DetailTLS
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "tls") || strings.Contains(errMsg, "TLS") ||
		strings.Contains(errMsg, "certificate") || strings.Contains(errMsg, "x509") {
		return ErrorFetch, DetailTLS
	}
	if strings.Contains(errMsg, "no such host") {
		return ErrorFetch, DetailDNS
	}

	// Connection refused, reset, unreachable and everything else
	return ErrorFetch, DetailNetwork
}

// tooManyRedirects builds the error for a chain that exceeded max
func tooManyRedirects(rawURL string, max int) *Error {
	return &Error{
		Kind: ErrorTooManyRedirects,
		URL:  rawURL,
		Err:  fmt.Errorf("stopped after %d redirects", max),
	}
}
