package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/olegrjumin/sitescan/internal/export"
	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/scoring"
)

const defaultWorkers = 4

type batchFlags struct {
	file    string
	workers int
	jsonl   string
	xlsx    string
}

func newBatchCmd(flags *globalFlags) *cobra.Command {
	bf := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Scan every URL in a file concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, flags, bf)
		},
	}

	cmd.Flags().StringVarP(&bf.file, "file", "f", "", "file with one URL per line (- for stdin)")
	cmd.Flags().IntVar(&bf.workers, "workers", defaultWorkers, "number of concurrent scans")
	cmd.Flags().StringVar(&bf.jsonl, "jsonl", "", "write one JSON record per URL to this file")
	cmd.Flags().StringVar(&bf.xlsx, "xlsx", "", "write an Excel workbook to this file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runBatch(cmd *cobra.Command, flags *globalFlags, bf *batchFlags) error {
	urls, err := readURLs(cmd.InOrStdin(), bf.file)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs in %s", bf.file)
	}

	svc, snap, err := flags.setup()
	if err != nil {
		return err
	}

	var jsonl *export.JSONLWriter
	if bf.jsonl != "" {
		f, err := os.Create(bf.jsonl)
		if err != nil {
			return fmt.Errorf("create %s: %w", bf.jsonl, err)
		}
		defer f.Close()
		jsonl = export.NewJSONLWriter(f)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	flags.printBanner(out, snap.Version)

	runID := uuid.NewString()
	fmt.Fprintf(out, "run %s: %d URLs, %d workers\n", runID, len(urls), max(bf.workers, 1))

	records := make([]export.Record, len(urls))
	var printMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(bf.workers, 1))
	for i, u := range urls {
		g.Go(func() error {
			start := time.Now()
			rep, err := svc.Scan(gctx, u, nil)

			rec := export.Record{
				RunID:      runID,
				URL:        u,
				ScannedAt:  start.UTC(),
				DurationMs: time.Since(start).Milliseconds(),
				Report:     rep,
			}
			if err != nil {
				rec.ErrorKind = scanner.KindOf(err)
				rec.ErrorMessage = err.Error()
			}
			records[i] = rec

			printMu.Lock()
			printSummaryLine(out, rec)
			printMu.Unlock()

			// one bad URL never stops the batch; only a broken output file does
			if jsonl != nil {
				return jsonl.Write(rec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if bf.xlsx != "" {
		if err := writeWorkbookFile(bf.xlsx, records); err != nil {
			return err
		}
	}

	malicious, failed := tally(records)
	fmt.Fprintf(out, "done: %d scanned, %d failed, %d malicious\n", len(records)-failed, failed, malicious)
	if malicious > 0 {
		return errMalicious
	}
	return nil
}

// readURLs reads one URL per line, skipping blanks and # comments
func readURLs(stdin io.Reader, path string) ([]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open URL list: %w", err)
		}
		defer f.Close()
		r = f
	}

	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read URL list: %w", err)
	}
	return urls, nil
}

func writeWorkbookFile(path string, records []export.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteWorkbook(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func tally(records []export.Record) (malicious, failed int) {
	for _, rec := range records {
		switch {
		case rec.Failed():
			failed++
		case rec.Report.Verdict == scoring.VerdictMalicious:
			malicious++
		}
	}
	return malicious, failed
}
