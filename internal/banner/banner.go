package banner

import (
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

const rule = "════════════════════════════════════════════════"

// Print writes the CLI banner to w. Colour follows fatih/color's terminal
// detection, so redirected output stays plain.
func Print(w io.Writer, version string) {
	fig := figure.NewFigure("SITESCAN", "doom", true)

	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = red.Fprint(w, fig.String())
	_, _ = cyan.Fprintln(w, rule)
	_, _ = green.Fprintln(w, "    Website risk analysis | reference data "+version)
	_, _ = cyan.Fprintln(w, rule)
}
