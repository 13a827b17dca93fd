package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegrjumin/sitescan/internal/banner"
	"github.com/olegrjumin/sitescan/internal/config"
	"github.com/olegrjumin/sitescan/internal/fetcher"
	"github.com/olegrjumin/sitescan/internal/httpclient"
	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/refdata"
	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/service"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	timeout      time.Duration
	refdataPath  string
	noBanner     bool
	allowPrivate bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "sitescan",
		Short:         "Analyze web pages for phishing and malicious content",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "per-URL scan timeout (default SCAN_TIMEOUT or 10s)")
	root.PersistentFlags().StringVar(&flags.refdataPath, "refdata", "", "reference data JSON file (default REFDATA_PATH or embedded)")
	root.PersistentFlags().BoolVar(&flags.noBanner, "no-banner", false, "do not print the banner")
	root.PersistentFlags().BoolVar(&flags.allowPrivate, "allow-private", false, "allow scanning loopback and private addresses")

	root.AddCommand(newScanCmd(flags), newBatchCmd(flags))
	return root
}

// setup wires config, logging, reference data and the scan pipeline
func (g *globalFlags) setup() (*service.Service, *refdata.Snapshot, error) {
	cfg := config.Load()
	if g.timeout > 0 {
		cfg.ScanTimeout = g.timeout
	}
	if g.refdataPath != "" {
		cfg.RefDataPath = g.refdataPath
	}
	if g.allowPrivate {
		cfg.AllowPrivateNetworks = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	snap, err := refdata.Load(cfg.RefDataPath)
	if err != nil {
		return nil, nil, err
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.AllowPrivateNetworks = cfg.AllowPrivateNetworks

	sc := scanner.New(
		fetcher.New(httpclient.NewClient(clientCfg)),
		refdata.NewStore(snap),
		fetcher.Options{
			Timeout:      cfg.ScanTimeout,
			MaxRedirects: cfg.MaxRedirects,
			MaxBodyBytes: cfg.MaxBodyBytes,
			UserAgent:    cfg.UserAgent,
		},
	)

	svc := service.New(sc, cliLogger(), service.Options{Timeout: cfg.ScanTimeout})
	return svc, snap, nil
}

// cliLogger keeps stderr quiet unless LOG_LEVEL asks for more
func cliLogger() *logging.Logger {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return logging.NewWithWriter(os.Stderr, logging.ParseLevel(level), os.Getenv("LOG_FORMAT") == "json")
}

func (g *globalFlags) printBanner(w io.Writer, version string) {
	if !g.noBanner {
		banner.Print(w, version)
	}
}
