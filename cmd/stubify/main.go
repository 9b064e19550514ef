// Package main implements the stubify CLI tool.
//
// stubify loads a resource catalog and replaces every live resource type with
// a stand-in that needs no resource manager:
//
//	stubify run --catalog resources.yaml           # Stubify and print a table
//	stubify run --check --output json              # Also verify every stand-in
//	stubify validate --catalog resources.yaml      # Only load and validate
//	stubify version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/flavioaiello/resource-stubifier/pkg/catalog"
	"github.com/flavioaiello/resource-stubifier/pkg/config"
	"github.com/flavioaiello/resource-stubifier/pkg/report"
	"github.com/flavioaiello/resource-stubifier/pkg/stubify"
)

// Version is set at build time.
var version = "dev"

// CLI constants for flag names.
const (
	flagCatalog  = "catalog"
	flagOutput   = "output"
	flagLogLevel = "log-level"
	flagLogJSON  = "log-json"
	flagCheck    = "check"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by all subcommands.
type cli struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	var (
		catalogPath string
		output      string
		logLevel    string
		logJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "stubify",
		Short: "Resource stubifier",
		Long: `stubify turns live resource types into stand-ins for tests.

Every method of every discovered resource type is replaced with one that
accepts the same arguments and returns placeholders, so test code can run
without a resource manager.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed(flagCatalog) {
				cfg.CatalogPath = catalogPath
			}
			if flags.Changed(flagOutput) {
				cfg.Output = config.OutputFormat(output)
			}
			if flags.Changed(flagLogLevel) {
				cfg.LogLevel = logLevel
			}
			if flags.Changed(flagLogJSON) {
				cfg.LogJSON = logJSON
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			c.cfg = cfg
			c.logger = initLogger(cfg)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&catalogPath, flagCatalog, "c", config.DefaultCatalog, "Resource catalog file")
	pf.StringVarP(&output, flagOutput, "o", string(config.DefaultOutput), "Output format (table, json, yaml)")
	pf.StringVar(&logLevel, flagLogLevel, config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	pf.BoolVar(&logJSON, flagLogJSON, false, "Emit JSON logs")

	cmd.AddCommand(
		newRunCmd(c),
		newValidateCmd(c),
		newVersionCmd(),
	)

	return cmd
}

func newRunCmd(c *cli) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stubify every resource type in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed(flagCheck) {
				c.cfg.Check = check
			}

			cat, err := catalog.Load(c.cfg.CatalogPath)
			if err != nil {
				return err
			}

			s := stubify.New(stubify.WithLogger(c.logger))
			if err := s.StubifyAll(cat); err != nil {
				return err
			}

			graph := cat.Graph()
			record := report.Build(s, cat.Path(), graph.Size(), report.WithGraph(graph))
			if c.cfg.Check {
				for _, t := range s.VisitedTypes() {
					if err := stubify.Check(t); err != nil {
						return err
					}
					record.MarkChecked(t.Name())
				}
			}

			report.NewLogger(c.logger).LogRecord(record)
			return printRecord(cmd.OutOrStdout(), record, c.cfg.Output)
		},
	}
	cmd.Flags().BoolVar(&check, flagCheck, false, "Verify every stubified type after the run")

	return cmd
}

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the catalog without stubifying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(c.cfg.CatalogPath)
			if err != nil {
				return err
			}

			c.logger.Info("Catalog valid",
				zap.String("catalog", cat.Path()),
				zap.Int("types", len(cat.Names())),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d resource types\n", cat.Path(), len(cat.Names()))
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}

// initLogger builds the CLI logger. Logs go to stderr so reports on stdout
// stay machine readable.
func initLogger(cfg *config.Config) *zap.Logger {
	level, _ := cfg.Level() //nolint:errcheck // Validated before the logger is built

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	encoding := "console"
	if cfg.LogJSON {
		encoding = "json"
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}

	return logger
}
