package scanner

import (
	"context"
	"errors"
	"strings"

	"github.com/olegrjumin/sitescan/internal/fetcher"
	"github.com/olegrjumin/sitescan/internal/htmldoc"
)

// Error kinds surfaced to callers of Scan
const (
	KindInvalidURL        = fetcher.ErrorInvalidURL
	KindFetchTimeout      = fetcher.ErrorTimeout
	KindTooManyRedirects  = fetcher.ErrorTooManyRedirects
	KindFetchError        = fetcher.ErrorFetch
	KindMalformedDocument = "malformed_document"
	KindCanceled          = "canceled"
)

// Error is the typed failure of a scan. No report accompanies it.
type Error struct {
	Kind string
	URL  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("scan")
	if e.URL != "" {
		b.WriteString(" " + e.URL)
	}
	b.WriteString(": " + e.Kind)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// fromFetch maps a fetcher failure onto a scan error kind
func fromFetch(rawURL string, err error) *Error {
	var fe *fetcher.Error
	if !errors.As(err, &fe) {
		return ContextError(rawURL, err)
	}
	kind := fe.Kind
	if fe.Kind == fetcher.ErrorFetch && fe.Detail == fetcher.DetailCanceled {
		kind = KindCanceled
	}
	return &Error{Kind: kind, URL: rawURL, Err: err}
}

func fromParse(rawURL string, err error) *Error {
	if errors.Is(err, htmldoc.ErrMalformedDocument) {
		return &Error{Kind: KindMalformedDocument, URL: rawURL, Err: err}
	}
	return &Error{Kind: KindFetchError, URL: rawURL, Err: err}
}

// ContextError reports an abandoned scan: a passed deadline is a timeout,
// a cancellation is canceled
func ContextError(rawURL string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindFetchTimeout, URL: rawURL, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, URL: rawURL, Err: err}
	}
	return &Error{Kind: KindFetchError, URL: rawURL, Err: err}
}
