package main

import (
	"fmt"
	"io"
	"strconv"

	"causelens/domain/rd"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeSummary prints one row per side fit followed by the window counts
func writeSummary(w io.Writer, plot *rd.Plot) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Side", "Label", "Fit", "N", "Mean", "Intercept", "Slope"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := [][]string{
		sideRow("control", plot.Labels.Control, plot.Control),
		sideRow("treated", plot.Labels.Treated, plot.Treated),
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	win := plot.Request.Window
	if _, err := fmt.Fprintf(w, "Window [%g, %g] around cutoff %g: %d of %d rows (%d non-numeric, %d outside)\n",
		win.Lower(), win.Upper(), win.Cutoff, plot.RowsInWindow, plot.RowsRead,
		plot.DroppedNonNumeric, plot.DroppedOutside); err != nil {
		return err
	}

	jump := "n/a"
	if plot.Discontinuity != nil {
		jump = formatFloat(*plot.Discontinuity)
	}
	_, err := fmt.Fprintf(w, "Status: %s. Jump at cutoff: %s\n", plot.Status, jump)
	return err
}

func sideRow(side, label string, fit rd.SideFit) []string {
	if fit.Kind == rd.FitKindEmpty {
		return []string{side, label, string(fit.Kind), "0", "-", "-", "-"}
	}
	slope := "-"
	if fit.Kind == rd.FitKindFitted {
		slope = formatFloat(fit.Slope())
	}
	return []string{
		side,
		label,
		string(fit.Kind),
		strconv.Itoa(fit.N),
		formatFloat(fit.Mean),
		formatFloat(fit.Intercept()),
		slope,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
