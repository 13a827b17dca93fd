package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/olegrjumin/sitescan/internal/analyzer"
	"github.com/olegrjumin/sitescan/internal/report"
	"github.com/olegrjumin/sitescan/internal/scoring"
)

func sampleRecords() []Record {
	rep := report.Build(report.Input{
		URL:      "https://bad.test/",
		FinalURL: "https://bad.test/login",
		Text:     analyzer.TextFindings{SuspiciousPhrases: []string{"verify your account", "act now"}, PhishingIndicators: true},
		Scripts:  analyzer.ScriptFindings{TotalScripts: 1, ExternalScripts: 1, SuspiciousDomains: []string{"coinhive.com"}, MinifiedOrEncoded: true},
		Links:    analyzer.LinkFindings{PhishingLikeLinks: []string{"paypa1.com"}},
		Score:    scoring.Result{Score: 7.5},
		Verdict:  scoring.VerdictMalicious,
	})
	at := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	return []Record{
		{RunID: "run-1", URL: "https://bad.test/", ScannedAt: at, DurationMs: 120, Report: &rep},
		{RunID: "run-1", URL: "https://down.test/", ScannedAt: at, DurationMs: 10000, ErrorKind: "fetch_timeout", ErrorMessage: "deadline exceeded"},
	}
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)
	for _, rec := range sampleRecords() {
		if err := w.Write(rec); err != nil {
			t.Fatal(err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var ok, failed Record
	if err := json.Unmarshal([]byte(lines[0]), &ok); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &failed); err != nil {
		t.Fatal(err)
	}
	if ok.Failed() || ok.Report.Verdict != scoring.VerdictMalicious {
		t.Errorf("first record = %+v", ok)
	}
	if !failed.Failed() || failed.ErrorKind != "fetch_timeout" {
		t.Errorf("second record = %+v", failed)
	}
	if strings.Contains(lines[1], `"report"`) {
		t.Error("a failed record must not carry a report")
	}
}

func TestJSONLWriterConcurrent(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)
	rec := sampleRecords()[0]

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Write(rec); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	sc := bufio.NewScanner(&buf)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		var got Record
		if err := json.Unmarshal(sc.Bytes(), &got); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", n, err)
		}
		n++
	}
	if n != 20 {
		t.Errorf("got %d lines, want 20", n)
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleRecords()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if sheets := strings.Join(f.GetSheetList(), ","); sheets != "Results,Findings" {
		t.Errorf("sheets = %s", sheets)
	}

	rows, err := f.GetRows(SheetResults)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d result rows, want 3", len(rows))
	}
	if rows[0][0] != "URL" || rows[0][2] != "Verdict" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "Malicious" || rows[1][4] != "verify your account; act now" || rows[1][6] != "yes" {
		t.Errorf("report row = %v", rows[1])
	}
	if rows[2][0] != "https://down.test/" || rows[2][10] != "fetch_timeout deadline exceeded" {
		t.Errorf("error row = %v", rows[2])
	}

	findings, err := f.GetRows(SheetFindings)
	if err != nil {
		t.Fatal(err)
	}
	// header + 2 phrases + 1 domain + minified + 1 link
	if len(findings) != 6 {
		t.Fatalf("got %d finding rows, want 6: %v", len(findings), findings)
	}
	if findings[3][1] != "suspicious_script_domain" || findings[3][2] != "coinhive.com" {
		t.Errorf("finding row = %v", findings[3])
	}
}

func TestWriteWorkbookOrdersByRisk(t *testing.T) {
	build := func(v scoring.Verdict, score float64) *report.ScanReport {
		rep := report.Build(report.Input{Score: scoring.Result{Score: score}, Verdict: v})
		return &rep
	}
	records := []Record{
		{URL: "https://safe.test/", Report: build(scoring.VerdictSafe, 0)},
		{URL: "https://down.test/", ErrorKind: "fetch_error"},
		{URL: "https://odd.test/", Report: build(scoring.VerdictSuspicious, 3.5)},
		{URL: "https://bad.test/", Report: build(scoring.VerdictMalicious, 8)},
		{URL: "https://odder.test/", Report: build(scoring.VerdictSuspicious, 5)},
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, records); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetResults)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"https://bad.test/", "https://odder.test/", "https://odd.test/", "https://safe.test/", "https://down.test/"}
	var got []string
	for _, row := range rows[1:] {
		got = append(got, row[0])
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("order = %v, want %v", got, want)
	}
	if records[0].URL != "https://safe.test/" {
		t.Error("input slice must not be reordered")
	}
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, nil); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetResults)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}
