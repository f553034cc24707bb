package main

import (
	"encoding/json"
	"fmt"
	"os"

	"causelens/adapters/chart"
	"causelens/adapters/datareadiness/coercer"
	"causelens/adapters/excel"
	"causelens/adapters/stats/rdfit"
	"causelens/domain/dataset"
	"causelens/domain/rd"
	"causelens/internal/testkit"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rdplot",
		Short: "Regression-discontinuity plots from CSV and XLSX files",
	}

	rootCmd.AddCommand(
		newFitCmd(),
		newSynthCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type fitOptions struct {
	file      string
	running   string
	outcome   string
	cutoff    float64
	bandwidth float64
	order     int
	side      string
	samples   int
	limit     int
	lenient   bool
	htmlOut   string
	pngOut    string
	asJSON    bool
}

func newFitCmd() *cobra.Command {
	var opts fitOptions

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit local polynomials on both sides of a cutoff",
		Long: `Fit a local polynomial on each side of the cutoff inside the bandwidth
window and print the side fits and the jump at the cutoff.

Example: rdplot fit --file scores.csv --running test_score --outcome earnings --cutoff 70 --bandwidth 10 --png rd.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "", "CSV or XLSX file with a header row")
	f.StringVar(&opts.running, "running", "", "Running variable column")
	f.StringVar(&opts.outcome, "outcome", "", "Outcome variable column")
	f.Float64Var(&opts.cutoff, "cutoff", 0, "Cutoff on the running variable")
	f.Float64Var(&opts.bandwidth, "bandwidth", 0, "Half-width of the window around the cutoff")
	f.IntVar(&opts.order, "order", 1, "Polynomial order (1 or 2)")
	f.StringVar(&opts.side, "side", string(rd.SideAbove), "Treated side of the cutoff (above or below)")
	f.IntVar(&opts.samples, "samples", rd.DefaultSampleCount, "Curve samples across the window")
	f.IntVar(&opts.limit, "limit", dataset.DefaultRowLimit, "Maximum rows read from the file")
	f.BoolVar(&opts.lenient, "lenient", false, "Accept currency, percent and thousands separators in numbers")
	f.StringVar(&opts.htmlOut, "html", "", "Write an interactive chart to this HTML file")
	f.StringVar(&opts.pngOut, "png", "", "Write a static chart to this PNG file")
	f.BoolVar(&opts.asJSON, "json", false, "Print the full plot as JSON instead of a table")
	for _, name := range []string{"file", "running", "outcome", "cutoff", "bandwidth"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runFit(cmd *cobra.Command, opts fitOptions) error {
	side, err := rd.ParseTreatmentSide(opts.side)
	if err != nil {
		return err
	}

	table, err := excel.NewDataReader(opts.file).ReadData(opts.limit)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}

	engine := rdfit.NewEngine(coercer.NewNumericCoercer(coercer.CoercionConfig{Lenient: opts.lenient}))
	plot, err := engine.Compute(table.Rows, rd.Request{
		Running: opts.running,
		Outcome: opts.outcome,
		Window:  rd.Window{Cutoff: opts.cutoff, Bandwidth: opts.bandwidth},
		Order:   rd.PolynomialOrder(opts.order),
		Side:    side,
		Samples: opts.samples,
	})
	if err != nil {
		return err
	}

	if opts.htmlOut != "" {
		if err := writeHTML(opts.htmlOut, plot); err != nil {
			return err
		}
	}
	if opts.pngOut != "" {
		if err := chart.NewPNGRenderer().Save(opts.pngOut, plot); err != nil {
			return fmt.Errorf("write %s: %w", opts.pngOut, err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plot)
	}
	return writeSummary(out, plot)
}

func writeHTML(path string, plot *rd.Plot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := chart.NewEChartsRenderer("").Render(f, plot); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func newSynthCmd() *cobra.Command {
	cfg := testkit.DefaultRDConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic dataset with a known jump at the cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := testkit.NewRDDataGenerator(cfg).WriteFile(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s (%s vs %s, cutoff %g, jump %g)\n",
				cfg.Rows, out, cfg.RunningName, cfg.OutcomeName, cfg.Cutoff, cfg.Jump)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&out, "out", "", "Output file (.csv or .xlsx)")
	f.IntVar(&cfg.Rows, "rows", cfg.Rows, "Number of rows")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	f.Float64Var(&cfg.Cutoff, "cutoff", cfg.Cutoff, "Cutoff on the running variable")
	f.Float64Var(&cfg.Jump, "jump", cfg.Jump, "Outcome jump for treated rows")
	f.Float64Var(&cfg.Noise, "noise", cfg.Noise, "Outcome noise standard deviation")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
