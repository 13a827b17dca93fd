package scanner

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegrjumin/sitescan/internal/analyzer"
	"github.com/olegrjumin/sitescan/internal/fetcher"
	"github.com/olegrjumin/sitescan/internal/htmldoc"
	"github.com/olegrjumin/sitescan/internal/refdata"
	"github.com/olegrjumin/sitescan/internal/report"
	"github.com/olegrjumin/sitescan/internal/scoring"
)

// Stage names a pipeline step reported to observers
type Stage string

const (
	StageFetching  Stage = "fetching"
	StageParsing   Stage = "parsing"
	StageAnalyzing Stage = "analyzing"
	StageScoring   Stage = "scoring"
	StageComplete  Stage = "complete"
)

// Reports warn about final-hop certificates expiring sooner than this
const certExpiryWindow = 14 * 24 * time.Hour

// Fetcher retrieves a page. *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts fetcher.Options) (*fetcher.Result, error)
}

// ScanRequest is a validated scan input. Build it with NewScanRequest.
type ScanRequest struct {
	url     string
	timeout time.Duration
}

// NewScanRequest validates rawURL before any network activity happens.
// A zero timeout means the scanner default.
func NewScanRequest(rawURL string, timeout time.Duration) (ScanRequest, error) {
	u, err := fetcher.ValidateURL(rawURL)
	if err != nil {
		return ScanRequest{}, &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	if timeout < 0 {
		timeout = 0
	}
	return ScanRequest{url: u.String(), timeout: timeout}, nil
}

// URL returns the validated URL
func (r ScanRequest) URL() string { return r.url }

// Timeout returns the requested timeout, zero when unset
func (r ScanRequest) Timeout() time.Duration { return r.timeout }

// Scanner runs the fetch, parse, analyze, score and report pipeline.
// It holds no per-scan state and is safe for concurrent use.
type Scanner struct {
	fetcher  Fetcher
	store    *refdata.Store
	defaults fetcher.Options
}

// New creates a Scanner
func New(f Fetcher, store *refdata.Store, defaults fetcher.Options) *Scanner {
	return &Scanner{
		fetcher:  f,
		store:    store,
		defaults: defaults,
	}
}

// ReferenceVersion is the version of the reference data new scans will use
func (s *Scanner) ReferenceVersion() string {
	return s.store.Current().Version
}

// Scan runs the pipeline for one request
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) (*report.ScanReport, error) {
	return s.ScanObserved(ctx, req, nil)
}

// ScanObserved is Scan with a callback invoked as each stage starts.
// observe may be nil; it is called from the scanning goroutine.
func (s *Scanner) ScanObserved(ctx context.Context, req ScanRequest, observe func(Stage)) (*report.ScanReport, error) {
	if req.url == "" {
		return nil, &Error{Kind: KindInvalidURL, Err: fetcher.ErrInvalidURL}
	}
	if observe == nil {
		observe = func(Stage) {}
	}

	// one snapshot for the whole scan, even if a reload lands mid-way
	snap := s.store.Current()

	opts := s.defaults
	if req.timeout > 0 {
		opts.Timeout = req.timeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = fetcher.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	observe(StageFetching)
	res, err := s.fetcher.Fetch(ctx, req.url, opts)
	if err != nil {
		return nil, fromFetch(req.url, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, ContextError(req.url, err)
	}

	observe(StageParsing)
	doc, err := htmldoc.Parse(res)
	if err != nil {
		return nil, fromParse(req.url, err)
	}

	observe(StageAnalyzing)
	found, err := analyze(ctx, doc, snap)
	if err != nil {
		return nil, ContextError(req.url, err)
	}

	observe(StageScoring)
	score := scoring.Score(found.text, found.scripts, found.links, snap.Policy)
	verdict := scoring.Classify(score.Score, snap.Policy.Thresholds)

	rep := report.Build(report.Input{
		URL:              req.url,
		FinalURL:         res.FinalURL,
		Title:            doc.Title,
		Text:             found.text,
		Scripts:          found.scripts,
		Links:            found.links,
		Score:            score,
		Verdict:          verdict,
		ReferenceVersion: snap.Version,
		Warnings:         warningsFor(res),
	})

	observe(StageComplete)
	return &rep, nil
}

type findings struct {
	text    analyzer.TextFindings
	scripts analyzer.ScriptFindings
	links   analyzer.LinkFindings
}

// analyze runs the three analyzers concurrently. Each writes only its own
// field; Wait is the barrier before scoring.
func analyze(ctx context.Context, doc *htmldoc.Document, snap *refdata.Snapshot) (findings, error) {
	var f findings
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		f.text = analyzer.AnalyzeText(doc.AnalyzableText(), snap.Text)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		f.scripts = analyzer.AnalyzeScripts(doc.URL, doc.Scripts, snap.Scripts)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		f.links = analyzer.AnalyzeLinks(doc.URL, doc.Links, snap.Links)
		return nil
	})

	if err := g.Wait(); err != nil {
		return findings{}, err
	}
	// analyzers may have finished just as the deadline passed
	if err := ctx.Err(); err != nil {
		return findings{}, err
	}
	return f, nil
}

func warningsFor(res *fetcher.Result) []string {
	var warnings []string
	if res.Truncated {
		warnings = append(warnings, report.WarningContentTruncated)
	}
	if res.Status < 200 || res.Status > 299 {
		warnings = append(warnings, report.WarningHTTPStatusPrefix+strconv.Itoa(res.Status))
	}
	// also covers certificates that already expired
	if res.TLS.ExpiresWithin(time.Now(), certExpiryWindow) {
		warnings = append(warnings, report.WarningCertExpiring)
	}
	return warnings
}
