package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/straye-as/sales-dashboard-api/internal/aggregation"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
	"github.com/straye-as/sales-dashboard-api/internal/service"
	"github.com/straye-as/sales-dashboard-api/internal/source"
	"go.uber.org/zap"
)

type options struct {
	asOf        string
	fiscalStart int
	quotaFile   string
	pretty      bool
	repair      bool
	verbose     bool
}

func newCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "aggregate [snapshot.json]",
		Short: "Aggregate a deal snapshot into dashboard views",
		Long: "Reads a deal snapshot (a JSON array of deals, or an object with a \"data\" or \"deals\" array)\n" +
			"from a file or stdin and prints the dashboard aggregates as JSON.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.asOf, "as-of", "", "reference date YYYY-MM-DD for the fiscal year label (default today)")
	flags.IntVar(&opts.fiscalStart, "fiscal-start", int(fiscal.DefaultStartMonth), "first month of the fiscal year (1-12)")
	flags.StringVar(&opts.quotaFile, "quotas", "", "YAML quota file of fiscalYear -> region -> amount")
	flags.BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	flags.BoolVar(&opts.repair, "repair", false, "repair malformed snapshot JSON instead of failing (may drop or truncate deals)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")
	return cmd
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	log, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	calendar, err := fiscal.NewCalendar(time.Month(opts.fiscalStart))
	if err != nil {
		return err
	}

	asOf := time.Now()
	if opts.asOf != "" {
		parsed, ok := fiscal.ParseDate(opts.asOf)
		if !ok {
			return fmt.Errorf("invalid --as-of date %q, expected YYYY-MM-DD", opts.asOf)
		}
		asOf = parsed
	}

	data, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	payloads, err := parseSnapshot(data, name, opts.repair, log)
	if err != nil {
		return err
	}
	records, err := source.DecodeRecords(payloads)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	label := calendar.FiscalYearOf(asOf).Label()
	quotas, err := loadQuotas(opts.quotaFile, label)
	if err != nil {
		return err
	}

	result := aggregation.Aggregate(records, aggregation.Options{
		AsOf:     asOf,
		Calendar: calendar,
		Quotas:   quotas,
	})
	log.Info("Aggregated snapshot",
		zap.String("input", name),
		zap.Int("records", len(records)),
		zap.Int("regions", len(result.Regions())),
		zap.String("fiscal_year", label))

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

// newLogger logs to stderr with -v, and reports repairs when --repair is set
func newLogger(opts *options) (*zap.Logger, error) {
	if !opts.verbose && !opts.repair {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	if !opts.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func parseSnapshot(data []byte, name string, repair bool, log *zap.Logger) ([]json.RawMessage, error) {
	if !repair {
		payloads, err := source.ParseSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s (use --repair to recover a malformed file): %w", name, err)
		}
		return payloads, nil
	}

	payloads, repaired, err := source.RepairSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if repaired != nil {
		log.Warn("Snapshot was malformed and has been repaired, deals may be missing or truncated",
			zap.String("input", name),
			zap.Int("original_bytes", repaired.OriginalBytes),
			zap.Int("repaired_bytes", repaired.RepairedBytes),
			zap.Int("deals", len(payloads)),
			zap.String("original_tail", tail(string(data), 80)),
			zap.String("repaired_tail", tail(repaired.Repaired, 80)))
	}
	return payloads, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, "stdin", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, args[0], nil
}

// loadQuotas returns the quotas of one fiscal year from a YAML quota file
func loadQuotas(path, fiscalYear string) (map[string]domain.Money, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quota file: %w", err)
	}
	seed, err := service.ParseQuotaSeed(data)
	if err != nil {
		return nil, err
	}

	quotas := make(map[string]domain.Money)
	for _, q := range seed {
		if q.FiscalYear == fiscalYear {
			quotas[q.Region] = domain.MoneyFromFloat(q.Amount)
		}
	}
	return quotas, nil
}
