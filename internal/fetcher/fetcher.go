package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olegrjumin/sitescan/internal/httpclient"
)

// redirectDrainLimit bounds how much of a redirect body is read so the
// connection can be reused
const redirectDrainLimit = 4096

// Fetcher retrieves raw page content with bounded time, size and redirects
type Fetcher struct {
	client *httpclient.Client
}

// New creates a new Fetcher instance
func New(client *httpclient.Client) *Fetcher {
	return &Fetcher{client: client}
}

// ValidateURL checks that rawURL is an absolute http or https URL with a host
// No network activity happens here
func ValidateURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, invalidURL(rawURL, "URL is empty")
	}

	parsedURL, err := url.Parse(trimmed)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, invalidURL(rawURL, "invalid URL format")
	}

	// Ensure scheme is http or https
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, invalidURL(rawURL, "URL must use http or https")
	}
	if parsedURL.Hostname() == "" {
		return nil, invalidURL(rawURL, "URL has no host")
	}
	parsedURL.Scheme = scheme

	return parsedURL, nil
}

// Fetch performs a GET on rawURL, walking redirects itself so it can enforce
// the cap and record the chain. The whole call, body read included, is bounded
// by opts.Timeout; cancelling ctx aborts the in-flight request.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	startTime := time.Now()

	// Step 1: Validate and parse the URL
	current, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	// Step 2: Perform HTTP request with redirect handling
	chain := make([]string, 0, opts.MaxRedirects+1)
	chain = append(chain, current.String())
	redirectCount := 0

	var resp *httpclient.Response
	for {
		resp, err = f.client.Do(ctx, http.MethodGet, current.String(), opts.UserAgent)
		if err != nil {
			return nil, wrapError(ctx, current.String(), err)
		}

		if !isRedirect(resp.StatusCode) {
			break
		}
		location := resp.Header.Get("Location")
		if location == "" {
			// No location header, this is the final response
			break
		}
		drainAndClose(resp.Body)

		redirectCount++
		if redirectCount > opts.MaxRedirects {
			return nil, tooManyRedirects(current.String(), opts.MaxRedirects)
		}

		// Parse the location (might be relative)
		next, parseErr := current.Parse(location)
		if parseErr != nil {
			return nil, &Error{Kind: ErrorFetch, URL: current.String(), Detail: DetailInvalidRedirect, Err: parseErr}
		}
		if next.Scheme != "http" && next.Scheme != "https" {
			return nil, &Error{
				Kind:   ErrorFetch,
				URL:    current.String(),
				Detail: DetailInvalidRedirect,
				Err:    errors.New("redirect to unsupported scheme " + next.Scheme),
			}
		}

		current = next
		chain = append(chain, current.String())
	}
	defer resp.Body.Close()

	// Step 3: Read the final body under the size cap
	body, truncated, err := readCapped(resp.Body, opts.MaxBodyBytes)
	if err != nil {
		return nil, wrapError(ctx, current.String(), err)
	}

	result := &Result{
		RequestedURL:    chain[0],
		FinalURL:        current.String(),
		Status:          resp.StatusCode,
		ContentType:     resp.Header.Get("Content-Type"),
		ContentEncoding: resp.Header.Get("Content-Encoding"),
		Body:            body,
		Truncated:       truncated,
		RedirectChain:   chain,
		Timings:         ExtractTimings(resp.Timings),
		TLS:             ExtractTLSInfo(resp.TLS, time.Now()),
	}

	// Extract HTTP version (e.g., "HTTP/2.0" -> "2.0")
	if strings.HasPrefix(resp.Proto, "HTTP/") {
		result.HTTPVersion = strings.TrimPrefix(resp.Proto, "HTTP/")
	}
	result.Duration = time.Since(startTime)

	return result, nil
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

// readCapped reads at most max bytes; reading one extra byte tells us whether
// the body was longer
func readCapped(r io.Reader, max int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > max {
		return data[:max], true, nil
	}
	return data, false, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, redirectDrainLimit))
	_ = body.Close()
}
