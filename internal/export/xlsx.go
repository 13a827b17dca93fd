package export

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/olegrjumin/sitescan/internal/scoring"
)

// Sheet names in the workbook
const (
	SheetResults  = "Results"
	SheetFindings = "Findings"
)

var resultColumns = []string{
	"URL", "Final URL", "Verdict", "Risk Score", "Phishing Phrases", "Suspicious Script Domains",
	"Minified/Encoded", "Phishing-like Links", "Redirect Services", "Warnings", "Error",
	"Reference Version", "Scanned At", "Duration (ms)",
}

var findingColumns = []string{"URL", "Category", "Value"}

// verdictFills colours the verdict cell
var verdictFills = map[scoring.Verdict]string{
	scoring.VerdictSafe:       "C6EFCE",
	scoring.VerdictSuspicious: "FFEB9C",
	scoring.VerdictMalicious:  "FFC7CE",
}

// WriteWorkbook renders records as an XLSX workbook with a summary sheet and
// a one-row-per-finding sheet
func WriteWorkbook(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFindings); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	fills := make(map[scoring.Verdict]int, len(verdictFills))
	for verdict, color := range verdictFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return fmt.Errorf("create verdict style: %w", err)
		}
		fills[verdict] = id
	}

	if err := writeHeader(f, SheetResults, resultColumns, header); err != nil {
		return err
	}
	if err := writeHeader(f, SheetFindings, findingColumns, header); err != nil {
		return err
	}

	findingRow := 2
	for i, rec := range byRisk(records) {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetResults, cell, resultRow(rec)); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if rec.Report != nil {
			if style, ok := fills[rec.Report.Verdict]; ok {
				verdictCell, _ := excelize.CoordinatesToCellName(3, row)
				if err := f.SetCellStyle(SheetResults, verdictCell, verdictCell, style); err != nil {
					return fmt.Errorf("style row %d: %w", row, err)
				}
			}
		}

		for _, finding := range findingRows(rec) {
			cell, _ := excelize.CoordinatesToCellName(1, findingRow)
			if err := f.SetSheetRow(SheetFindings, cell, &finding); err != nil {
				return fmt.Errorf("write finding row %d: %w", findingRow, err)
			}
			findingRow++
		}
	}

	if err := f.SetColWidth(SheetResults, "A", "B", 45); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetFindings, "A", "A", 45); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetFindings, "C", "C", 50); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeHeader writes the bold header row and freezes it
func writeHeader(f *excelize.File, sheet string, columns []string, style int) error {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func resultRow(rec Record) *[]interface{} {
	scannedAt := ""
	if !rec.ScannedAt.IsZero() {
		scannedAt = rec.ScannedAt.UTC().Format(time.RFC3339)
	}

	if rec.Report == nil {
		return &[]interface{}{
			rec.URL, "", "", "", "", "", "", "", "", "",
			strings.TrimSpace(rec.ErrorKind + " " + rec.ErrorMessage),
			"", scannedAt, rec.DurationMs,
		}
	}

	rep := rec.Report
	return &[]interface{}{
		rec.URL,
		rep.FinalURL,
		string(rep.Verdict),
		rep.RiskScore,
		strings.Join(rep.PageTextFindings.SuspiciousPhrases, "; "),
		strings.Join(rep.ScriptAnalysis.SuspiciousDomains, "; "),
		yesNo(rep.ScriptAnalysis.MinifiedOrEncoded),
		strings.Join(rep.LinkAnalysis.PhishingLikeLinks, "; "),
		strings.Join(rep.LinkAnalysis.RedirectServicesUsed, "; "),
		strings.Join(rep.Warnings, "; "),
		"",
		rep.ReferenceVersion,
		scannedAt,
		rec.DurationMs,
	}
}

// findingRows flattens a report into (url, category, value) rows
func findingRows(rec Record) [][]interface{} {
	if rec.Report == nil {
		return nil
	}
	rep := rec.Report

	var rows [][]interface{}
	add := func(category string, values []string) {
		for _, v := range values {
			rows = append(rows, []interface{}{rec.URL, category, v})
		}
	}
	add("suspicious_phrase", rep.PageTextFindings.SuspiciousPhrases)
	add("suspicious_script_domain", rep.ScriptAnalysis.SuspiciousDomains)
	if rep.ScriptAnalysis.MinifiedOrEncoded {
		rows = append(rows, []interface{}{rec.URL, "minified_or_encoded", "inline script"})
	}
	add("phishing_like_link", rep.LinkAnalysis.PhishingLikeLinks)
	add("redirect_service", rep.LinkAnalysis.RedirectServicesUsed)
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// byRisk orders records worst verdict first, then by score, with failed
// scans last. Ties keep their input order.
func byRisk(records []Record) []Record {
	sorted := slices.Clone(records)
	rank := func(rec Record) (int, float64) {
		if rec.Failed() {
			return -1, 0
		}
		return rec.Report.Verdict.Severity(), rec.Report.RiskScore
	}
	slices.SortStableFunc(sorted, func(a, b Record) int {
		sa, ra := rank(a)
		sb, rb := rank(b)
		if c := cmp.Compare(sb, sa); c != 0 {
			return c
		}
		return cmp.Compare(rb, ra)
	})
	return sorted
}
