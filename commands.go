package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"opportunityScanner/config"
	"opportunityScanner/internal/utils"
)

type scanFlags struct {
	top      int
	interval string
	limit    int
	workers  int
	csvPath  string
	pretty   bool
}

func newRootCmd() *cobra.Command {
	var flags scanFlags

	root := &cobra.Command{
		Use:           "scanner",
		Short:         "Rank exchange instruments by a composite opportunity score",
		Long:          "Runs one market scan (momentum filter, technical scoring, funding adjustment, ranking) and prints the ranked result as JSON.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runScan(cmd, cfg, flags)
		},
	}

	root.Flags().IntVar(&flags.top, "top", 5, "number of opportunities to return")
	root.Flags().StringVar(&flags.interval, "interval", "1h", "kline interval used for technical analysis")
	root.Flags().IntVar(&flags.limit, "limit", 100, "klines fetched per candidate")
	root.Flags().IntVar(&flags.workers, "workers", 5, "concurrent kline fetches")
	root.Flags().StringVar(&flags.csvPath, "csv", "", "also write the opportunities to this CSV file ('-' for stdout instead of JSON)")
	root.Flags().BoolVar(&flags.pretty, "pretty", false, "indent the JSON output")

	root.AddCommand(newHistoryCmd())
	return root
}

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		scanID int64
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored scans, or the opportunities of one scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadHistoryConfig()
			if err != nil {
				return err
			}

			svc, cleanup, err := buildHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if scanID > 0 {
				opps, err := svc.ScanOpportunities(cmd.Context(), scanID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), opps, true)
			}

			records, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSCANNED AT\tPAIRS\tOPPORTUNITIES\tFALLBACK\tTOP")
			for _, r := range records {
				top := "-"
				if r.TopSymbol != "" {
					top = fmt.Sprintf("%s (%d)", r.TopSymbol, r.TopScore)
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n", r.ID, r.ScannedAt.Format("2006-01-02 15:04:05"), r.ScannedPairs, r.OpportunityCount, r.FallbackCount, top)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of scans to list")
	cmd.Flags().Int64Var(&scanID, "scan", 0, "show the opportunities stored for this scan ID")
	return cmd
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, flags scanFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("top") {
		if flags.top <= 0 {
			return nil, fmt.Errorf("--top must be positive")
		}
		cfg.TopN = flags.top
	}
	if f.Changed("interval") {
		cfg.KlineInterval = flags.interval
	}
	if f.Changed("limit") {
		if flags.limit < 20 {
			return nil, fmt.Errorf("--limit must be at least 20")
		}
		cfg.KlineLimit = flags.limit
	}
	if f.Changed("workers") {
		if flags.workers <= 0 {
			return nil, fmt.Errorf("--workers must be positive")
		}
		cfg.CandleWorkers = flags.workers
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, cfg *config.Config, flags scanFlags) error {
	svc, cleanup, err := buildService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.TrimSpace(flags.csvPath) {
	case "":
	case "-":
		return utils.WriteOpportunitiesToCSV(result.Opportunities, out)
	default:
		file, err := os.Create(flags.csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV file '%s': %w", flags.csvPath, err)
		}
		defer file.Close()
		if err := utils.WriteOpportunitiesToCSV(result.Opportunities, file); err != nil {
			return fmt.Errorf("failed to write CSV file '%s': %w", flags.csvPath, err)
		}
	}

	return writeJSON(out, result, flags.pretty)
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
