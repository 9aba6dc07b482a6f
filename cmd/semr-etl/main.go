package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/semr/etl/internal/config"
	"github.com/semr/etl/internal/domain/caseload"
	"github.com/semr/etl/internal/domain/record"
	"github.com/semr/etl/internal/domain/resolve"
	"github.com/semr/etl/internal/platform/casestore"
	"github.com/semr/etl/internal/platform/db"
	"github.com/semr/etl/internal/platform/synthea"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "semr-etl",
		Short: "Clinical case ETL pipeline",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(syntheaCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a batch of cases from a case-times file",
		RunE: func(cmd *cobra.Command, args []string) error {
			caseTimes, _ := cmd.Flags().GetString("case-times")

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if caseTimes == "" {
				caseTimes = cfg.CaseTimesFile
			}
			if caseTimes == "" {
				return fmt.Errorf("--case-times (or CASE_TIMES_FILE) is required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner, closer, err := newRunner(ctx, cfg, logger)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to initialize pipeline")
			}
			defer closer()

			f, err := os.Open(caseTimes)
			if err != nil {
				return fmt.Errorf("open case-times file: %w", err)
			}
			jobs, err := caseload.ParseCaseTimes(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("parse case-times file: %w", err)
			}

			result, err := runner.Run(ctx, jobs)
			if err != nil {
				return err
			}
			logger.Info().
				Str("run_id", result.RunID).
				Int("processed", result.Processed).
				Int("failed", result.Failed).
				Msg("batch complete")
			return nil
		},
	}
	cmd.Flags().String("case-times", "", "Path to case-times file (case_id,cutoff_millis per line)")
	return cmd
}

func caseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Process a single case",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			cutoffArg, _ := cmd.Flags().GetString("cutoff")
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			cutoff, err := parseCutoff(cutoffArg)
			if err != nil {
				return err
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner, closer, err := newRunner(ctx, cfg, logger)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to initialize pipeline")
			}
			defer closer()

			result, err := runner.Run(ctx, []caseload.CaseJob{{CaseID: id, Cutoff: cutoff}})
			if err != nil {
				return err
			}
			if result.Failed > 0 {
				return fmt.Errorf("case %s failed, see log for details", id)
			}
			logger.Info().Str("case_id", id).Str("run_id", result.RunID).Msg("case processed")
			return nil
		},
	}
	cmd.Flags().String("id", "", "Case identifier")
	cmd.Flags().String("cutoff", "", "Review cutoff: epoch milliseconds or RFC 3339 (default: now)")
	return cmd
}

func syntheaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthea",
		Short: "Convert a Synthea CSV export into case fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			out, _ := cmd.Flags().GetString("out")
			codes, _ := cmd.Flags().GetStringSlice("codes")
			limit, _ := cmd.Flags().GetInt("limit")
			if source == "" {
				return fmt.Errorf("--source is required")
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.FixtureDir
			}
			if out == "" {
				return fmt.Errorf("--out (or FIXTURE_DIR) is required")
			}

			conv := synthea.NewConverter(source, codes, limit, logger)
			result, err := conv.Convert(out)
			if err != nil {
				return err
			}
			logger.Info().Int("cases", result.Cases).Msg("conversion complete")
			return nil
		},
	}
	cmd.Flags().String("source", "", "Directory containing the Synthea CSV export")
	cmd.Flags().String("out", "", "Fixture output directory")
	cmd.Flags().StringSlice("codes", nil, "Encounter codes to keep (default: inpatient ICU)")
	cmd.Flags().Int("limit", 0, "Maximum number of encounters to convert (0 = no limit)")
	return cmd
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

// newRunner wires the full pipeline: source reader, display tables,
// assembler, case store, and the batch runner. The returned closer
// releases the database pool in live mode.
func newRunner(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*caseload.Runner, func(), error) {
	reader, closer, err := newReader(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	tables, err := resolve.Load(cfg.TablesDir)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("load display tables: %w", err)
	}

	store, err := casestore.New(cfg.OutputDir, logger)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("open case store: %w", err)
	}

	asm := caseload.NewAssembler(reader, tables, cfg.NoteTypes, logger)
	return caseload.NewRunner(asm, store, cfg.Workers, logger), closer, nil
}

func newReader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (record.Reader, func(), error) {
	switch cfg.SourceMode {
	case config.SourceLive:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info().Msg("connected to database")
		return record.NewReaderPG(pool, logger), pool.Close, nil
	default:
		return record.NewReaderFixture(cfg.FixtureDir), func() {}, nil
	}
}

func parseCutoff(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cutoff %q: use epoch milliseconds or RFC 3339", s)
	}
	return t.UTC(), nil
}
