package report

import (
	"github.com/olegrjumin/sitescan/internal/analyzer"
	"github.com/olegrjumin/sitescan/internal/scoring"
)

// Warning values carried by ScanReport.Warnings
const (
	WarningContentTruncated = "content_truncated"
	WarningHTTPStatusPrefix = "http_status_"
	WarningCertExpiring     = "tls_cert_expiring"
)

// ScanReport is the result of one scan. Field names and nesting are stable;
// rendering clients depend on them.
type ScanReport struct {
	Verdict          scoring.Verdict         `json:"verdict"`
	RiskScore        float64                 `json:"risk_score"`
	Summary          string                  `json:"summary"`
	Recommendations  string                  `json:"recommendations"`
	PageTextFindings analyzer.TextFindings   `json:"page_text_findings"`
	ScriptAnalysis   analyzer.ScriptFindings `json:"script_analysis"`
	LinkAnalysis     analyzer.LinkFindings   `json:"link_analysis"`

	URL              string                 `json:"url"`
	FinalURL         string                 `json:"final_url"`
	Title            string                 `json:"title,omitempty"`
	ScoreBreakdown   []scoring.Contribution `json:"score_breakdown"`
	ReferenceVersion string                 `json:"reference_version"`
	Warnings         []string               `json:"warnings,omitempty"`
}

// Input is everything Build needs
type Input struct {
	URL              string
	FinalURL         string
	Title            string
	Text             analyzer.TextFindings
	Scripts          analyzer.ScriptFindings
	Links            analyzer.LinkFindings
	Score            scoring.Result
	Verdict          scoring.Verdict
	ReferenceVersion string
	Warnings         []string
}

// Build assembles the report. It is pure: the same input always produces
// the same report, byte for byte once serialized.
func Build(in Input) ScanReport {
	text := in.Text
	text.SuspiciousPhrases = nonNil(text.SuspiciousPhrases)

	scripts := in.Scripts
	scripts.SuspiciousDomains = nonNil(scripts.SuspiciousDomains)

	links := in.Links
	links.RedirectServicesUsed = nonNil(links.RedirectServicesUsed)
	links.PhishingLikeLinks = nonNil(links.PhishingLikeLinks)

	breakdown := make([]scoring.Contribution, len(in.Score.Breakdown))
	copy(breakdown, in.Score.Breakdown)

	var warnings []string
	if len(in.Warnings) > 0 {
		warnings = make([]string, len(in.Warnings))
		copy(warnings, in.Warnings)
	}

	return ScanReport{
		Verdict:          in.Verdict,
		RiskScore:        in.Score.Score,
		Summary:          summarize(in.Verdict, text, scripts, links),
		Recommendations:  recommend(in.Verdict, text, scripts, links),
		PageTextFindings: text,
		ScriptAnalysis:   scripts,
		LinkAnalysis:     links,
		URL:              in.URL,
		FinalURL:         in.FinalURL,
		Title:            in.Title,
		ScoreBreakdown:   breakdown,
		ReferenceVersion: in.ReferenceVersion,
		Warnings:         warnings,
	}
}

// nonNil copies s so the report never shares or serializes a nil slice
func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
