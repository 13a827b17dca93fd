package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/olegrjumin/sitescan/internal/export"
	"github.com/olegrjumin/sitescan/internal/report"
	"github.com/olegrjumin/sitescan/internal/scoring"
)

var (
	labelColor = color.New(color.FgCyan)
	grayColor  = color.New(color.FgHiBlack)
	errorColor = color.New(color.FgRed)
)

// verdictColor picks the colour for a verdict
func verdictColor(v scoring.Verdict) *color.Color {
	switch v {
	case scoring.VerdictMalicious:
		return color.New(color.FgRed, color.Bold)
	case scoring.VerdictSuspicious:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

// printReport writes the human-readable form of one report
func printReport(w io.Writer, rep *report.ScanReport) {
	field := func(label, value string) {
		labelColor.Fprintf(w, "%-22s", label+":")
		fmt.Fprintln(w, value)
	}

	field("URL", rep.URL)
	if rep.FinalURL != "" && rep.FinalURL != rep.URL {
		field("Final URL", rep.FinalURL)
	}
	if rep.Title != "" {
		field("Title", rep.Title)
	}
	labelColor.Fprintf(w, "%-22s", "Verdict:")
	verdictColor(rep.Verdict).Fprintf(w, "%s", rep.Verdict)
	fmt.Fprintf(w, " (risk %.2f/10)\n", rep.RiskScore)
	fmt.Fprintln(w)

	field("Summary", rep.Summary)
	field("Recommendation", rep.Recommendations)
	fmt.Fprintln(w)

	text, scripts, links := rep.PageTextFindings, rep.ScriptAnalysis, rep.LinkAnalysis
	field("Phishing phrases", list(text.SuspiciousPhrases))
	field("Scripts", fmt.Sprintf("%d total, %d external", scripts.TotalScripts, scripts.ExternalScripts))
	field("Suspicious domains", list(scripts.SuspiciousDomains))
	field("Minified/encoded", yesNo(scripts.MinifiedOrEncoded))
	field("Links", fmt.Sprintf("%d total, %d external", links.TotalLinks, links.ExternalLinks))
	field("Phishing-like links", list(links.PhishingLikeLinks))
	field("Redirect services", list(links.RedirectServicesUsed))

	if len(rep.Warnings) > 0 {
		fmt.Fprintln(w)
		field("Warnings", strings.Join(rep.Warnings, ", "))
	}
	grayColor.Fprintf(w, "\nreference data %s\n", rep.ReferenceVersion)
}

// printSummaryLine writes one batch result line
func printSummaryLine(w io.Writer, rec export.Record) {
	if rec.Failed() {
		errorColor.Fprintf(w, "%-10s", "ERROR")
		fmt.Fprintf(w, " %s  %s\n", rec.URL, rec.ErrorKind)
		return
	}
	verdictColor(rec.Report.Verdict).Fprintf(w, "%-10s", rec.Report.Verdict)
	fmt.Fprintf(w, " %5.2f  %s", rec.Report.RiskScore, rec.URL)
	grayColor.Fprintf(w, "  (%dms)\n", rec.DurationMs)
}

func list(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
