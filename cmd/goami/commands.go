package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goami/autoarima"
)

// cli holds the flag values shared by the commands.
type cli struct {
	logLevel    string
	configPath  string
	format      string
	output      string
	concurrency int
	metricsAddr string
	manifest    string
	dataset     Dataset

	logger zerolog.Logger
	opts   autoarima.Options
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "goami",
		Short: "Automatic identification of regression models with SARIMA errors",
		Long: `goami selects the transformation, differencing, ARMA orders, outliers
and calendar regressors of a time series, and reports the estimated model
together with its residual diagnostics.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", envOr("GOAMI_LOG_LEVEL", "info"), "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv("GOAMI_CONFIG"), "YAML file with identification options")

	root.AddCommand(newIdentifyCmd(c), newDefaultsCmd(c))
	return root
}

func newIdentifyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify [file.csv...]",
		Short: "Identify the model of every series given as CSV file or in a manifest",
		Example: `  goami identify --column Beer --frequency 4 aus_production.csv
  goami identify --manifest datasets.yaml --format yaml -j 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := c.datasets(args)
			if err != nil {
				return err
			}
			if len(datasets) == 0 {
				return fmt.Errorf("no input: give CSV files or --manifest")
			}
			out := cmd.OutOrStdout()
			if c.output != "" {
				f, err := os.Create(c.output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return c.identify(cmd.Context(), datasets, out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.manifest, "manifest", "", "YAML manifest listing the datasets")
	f.StringVar(&c.dataset.Column, "column", "y", "value column")
	f.StringVar(&c.dataset.DateColumn, "date-column", "", "date column, detected when empty")
	f.StringVar(&c.dataset.DateFormat, "date-format", "2006-01-02", "date layout of the date column")
	f.StringVar(&c.dataset.FilterCol, "id-column", "", "column holding the series identifier")
	f.StringVar(&c.dataset.FilterVal, "id", "", "identifier of the series to keep")
	f.IntVar(&c.dataset.Period, "frequency", 0, "observations per year, inferred from the dates when 0")
	f.IntVar(&c.dataset.SkipFirst, "skip", 0, "observations dropped at the start")
	f.IntVar(&c.dataset.MaxObs, "max-obs", 0, "keep only the last observations")
	f.StringVarP(&c.format, "format", "f", "json", "output format (json, yaml)")
	f.StringVarP(&c.output, "output", "o", "", "output file, standard output when empty")
	f.IntVarP(&c.concurrency, "jobs", "j", runtime.NumCPU(), "series identified in parallel")
	f.StringVar(&c.metricsAddr, "metrics-addr", os.Getenv("GOAMI_METRICS_ADDR"), "address serving Prometheus metrics during the run")
	return cmd
}

func newDefaultsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the identification options in effect as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(c.opts)
		},
	}
}

// setup configures logging and loads the options.
func (c *cli) setup(w io.Writer) error {
	level, err := zerolog.ParseLevel(c.logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	c.logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	c.opts = autoarima.DefaultOptions()
	if c.configPath != "" {
		if c.opts, err = autoarima.LoadOptions(c.configPath); err != nil {
			return err
		}
		c.logger.Debug().Str("path", c.configPath).Msg("options loaded")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
