package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/olegrjumin/sitescan/internal/httpclient"
)

func newTestFetcher() *Fetcher {
	cfg := httpclient.DefaultConfig()
	cfg.AllowPrivateNetworks = true
	cfg.Insecure = true
	return New(httpclient.NewClient(cfg))
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http", "http://example.com/", false},
		{"https with port", "https://example.com:8443/login", false},
		{"uppercase scheme", "HTTPS://Example.com", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"no scheme", "example.com/path", true},
		{"ftp", "ftp://example.com/file", true},
		{"javascript", "javascript:alert(1)", true},
		{"no host", "http:///path", true},
		{"garbage", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("expected ErrInvalidURL, got %v", err)
			}
		})
	}
}

func TestFetchSimplePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>hello</body></html>")
	}))
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", res.Status)
	}
	if string(res.Body) != "<html><body>hello</body></html>" {
		t.Errorf("unexpected body %q", res.Body)
	}
	if res.Truncated {
		t.Error("small body must not be truncated")
	}
	if res.MIMEType() != "text/html; charset=utf-8" {
		t.Errorf("MIMEType() = %q", res.MIMEType())
	}
	if len(res.RedirectChain) != 1 {
		t.Errorf("unexpected redirect chain %v", res.RedirectChain)
	}
	if res.TLS != nil {
		t.Error("plain HTTP must not carry TLS info")
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/middle", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/middle", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>done</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/start", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.FinalURL != srv.URL+"/final" {
		t.Errorf("FinalURL = %q, want %q", res.FinalURL, srv.URL+"/final")
	}
	if res.Location() != res.FinalURL {
		t.Error("Location() must return the final URL")
	}
	want := []string{srv.URL + "/start", srv.URL + "/middle", srv.URL + "/final"}
	if strings.Join(res.RedirectChain, ",") != strings.Join(want, ",") {
		t.Errorf("RedirectChain = %v, want %v", res.RedirectChain, want)
	}
}

func TestFetchTooManyRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.MaxRedirects = 3

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/a", opts)
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("expected ErrTooManyRedirects, got %v", err)
	}
	var fe *Error
	if !errors.As(err, &fe) || fe.Kind != ErrorTooManyRedirects {
		t.Errorf("unexpected error value %#v", err)
	}
}

func TestFetchRedirectToUnsupportedScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "ftp://example.com/file")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, DefaultOptions())
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fe.Kind != ErrorFetch || fe.Detail != DetailInvalidRedirect {
		t.Errorf("got kind=%q detail=%q", fe.Kind, fe.Detail)
	}
}

func TestFetchRedirectWithoutLocationIsFinal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusNotModified {
		t.Errorf("Status = %d, want 304", res.Status)
	}
}

func TestFetchNon2xxIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "<html>missing</html>")
	}))
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", res.Status)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	opts := DefaultOptions()
	opts.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, opts)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took too long to fire: %v", elapsed)
	}
}

func TestFetchTimeoutDuringBody(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	opts := DefaultOptions()
	opts.Timeout = 100 * time.Millisecond

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, opts)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected fetch_timeout, got %v", err)
	}
}

func TestFetchCanceledByCaller(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := newTestFetcher().Fetch(ctx, srv.URL, DefaultOptions())
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fe.Kind != ErrorFetch || fe.Detail != DetailCanceled {
		t.Errorf("got kind=%q detail=%q", fe.Kind, fe.Detail)
	}
}

func TestFetchTruncatesLargeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("a", 2048))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.MaxBodyBytes = 1000

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, opts)
	if err != nil {
		t.Fatalf("truncation must not fail the fetch: %v", err)
	}
	if !res.Truncated {
		t.Error("expected Truncated to be set")
	}
	if len(res.Body) != 1000 {
		t.Errorf("len(Body) = %d, want 1000", len(res.Body))
	}
}

func TestFetchExactlyAtLimitIsNotTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("a", 1000))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.MaxBodyBytes = 1000

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Truncated {
		t.Error("body at exactly the limit must not be flagged")
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), addr, DefaultOptions())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestFetchInvalidURLMakesNoRequest(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), "mailto:someone@example.com", DefaultOptions())
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected invalid_url, got %v", err)
	}
}

func TestFetchBlockedPrivateAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach a loopback server")
	}))
	defer srv.Close()

	f := New(httpclient.NewClient(httpclient.DefaultConfig()))
	_, err := f.Fetch(context.Background(), srv.URL, DefaultOptions())

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fe.Kind != ErrorFetch || fe.Detail != DetailBlockedAddress {
		t.Errorf("got kind=%q detail=%q", fe.Kind, fe.Detail)
	}
}

func TestFetchTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>secure</html>")
	}))
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TLS == nil {
		t.Fatal("expected TLS info")
	}
	if !strings.HasPrefix(res.TLS.Version, "TLS ") {
		t.Errorf("unexpected TLS version %q", res.TLS.Version)
	}
	if res.TLS.NotAfter.IsZero() || !res.TLS.Valid {
		t.Errorf("unexpected certificate info %+v", res.TLS)
	}
	if res.TLS.ExpiresWithin(time.Now(), time.Hour) {
		t.Error("test certificate should not expire within the hour")
	}
	if res.Timings.FirstByte <= 0 {
		t.Errorf("expected a first-byte timing, got %v", res.Timings.FirstByte)
	}
}

func TestTLSInfoExpiresWithin(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	info := &TLSInfo{NotAfter: now.Add(48 * time.Hour)}

	if !info.ExpiresWithin(now, 7*24*time.Hour) {
		t.Error("expected expiry within a week")
	}
	if info.ExpiresWithin(now, 24*time.Hour) {
		t.Error("did not expect expiry within a day")
	}
	var none *TLSInfo
	if none.ExpiresWithin(now, time.Hour) {
		t.Error("nil info never expires")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   string
		wantDetail string
	}{
		{"nil", nil, ErrorNone, ""},
		{"deadline", context.DeadlineExceeded, ErrorTimeout, ""},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrorTimeout, ""},
		{"canceled", context.Canceled, ErrorFetch, DetailCanceled},
		{"blocked", fmt.Errorf("dial: %w", httpclient.ErrBlockedAddress), ErrorFetch, DetailBlockedAddress},
		{"dns string", errors.New("dial tcp: lookup nope.invalid: no such host"), ErrorFetch, DetailDNS},
		{"tls string", errors.New("remote error: tls: handshake failure"), ErrorFetch, DetailTLS},
		{"refused", errors.New("connection refused"), ErrorFetch, DetailNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, detail := ClassifyError(tt.err)
			if kind != tt.wantKind || detail != tt.wantDetail {
				t.Errorf("ClassifyError() = (%q, %q), want (%q, %q)", kind, detail, tt.wantKind, tt.wantDetail)
			}
		})
	}
}
