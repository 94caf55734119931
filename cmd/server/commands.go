package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/travel-engine/api"
	"github.com/warp/travel-engine/report"
	"github.com/warp/travel-engine/store/sqldb"
	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// CALCULATE / RECALCULATE
// =============================================================================

var calcFlags struct {
	shiftID string
	origin  string
	dest    string
	date    string
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate travel for one shift and store the record",
	Args:  cobra.NoArgs,
	RunE:  runCalculate,
}

var rangeFlags struct {
	from    string
	to      string
	staffID string
	outDir  string
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Re-run the latest calculation of every shift in a date range",
	Long: `Recalculates with the current rates, shift sequence and routing, then
rebuilds the daily aggregates of every affected staff member and day.`,
	Args: cobra.NoArgs,
	RunE: runRecalculate,
}

// =============================================================================
// EXPORT / MIGRATE
// =============================================================================

var exportCmd = &cobra.Command{
	Use:       "export {daily|statements|calculations}",
	Short:     "Write travel data to an Excel workbook",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"daily", "statements", "calculations"},
	RunE:      runExport,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	calculateCmd.Flags().StringVar(&calcFlags.shiftID, "shift", "", "shift ID")
	calculateCmd.Flags().StringVar(&calcFlags.origin, "from", "", "origin address")
	calculateCmd.Flags().StringVar(&calcFlags.dest, "to", "", "destination address")
	calculateCmd.Flags().StringVar(&calcFlags.date, "date", "", "travel date (YYYY-MM-DD)")
	for _, name := range []string{"shift", "from", "to", "date"} {
		_ = calculateCmd.MarkFlagRequired(name)
	}

	for _, cmd := range []*cobra.Command{recalculateCmd, exportCmd} {
		cmd.Flags().StringVar(&rangeFlags.from, "from", "", "first date (YYYY-MM-DD)")
		cmd.Flags().StringVar(&rangeFlags.to, "to", "", "last date (YYYY-MM-DD, default --from)")
		_ = cmd.MarkFlagRequired("from")
	}
	exportCmd.Flags().StringVar(&rangeFlags.staffID, "staff", "", "only this staff member")
	exportCmd.Flags().StringVarP(&rangeFlags.outDir, "out", "o", "", "output directory (default scheduler.export_dir)")

	rootCmd.AddCommand(calculateCmd, recalculateCmd, exportCmd, migrateCmd)
}

func runCalculate(cmd *cobra.Command, args []string) error {
	date, err := travel.ParseDate(calcFlags.date)
	if err != nil {
		return err
	}

	app, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	c, err := app.svc.Calculate(cmd.Context(), travel.CalculationRequest{
		ShiftID:            calcFlags.shiftID,
		OriginAddress:      calcFlags.origin,
		DestinationAddress: calcFlags.dest,
		TravelDate:         date,
	})
	if err != nil {
		return err
	}
	printCalculation(cmd.OutOrStdout(), c)
	return nil
}

func printCalculation(w io.Writer, c *travel.Calculation) {
	fmt.Fprintf(w, "calculation   %s\n", c.ID)
	fmt.Fprintf(w, "shift         %s (#%d of the day, first=%t)\n", c.ShiftID, c.SequenceNumber, c.IsFirstShift)
	fmt.Fprintf(w, "distance      %s km, %d min, %s\n", c.DistanceKm.StringFixed(2), c.TravelMinutes, c.ApplicableBand)
	fmt.Fprintf(w, "billable      %s (%d of %d min)\n", c.BillableAmount.StringFixed(2), c.BillableTimeMinutes, c.MaxTravelMinutes)
	fmt.Fprintf(w, "payable       %s\n", c.PayableAmount.StringFixed(2))
	fmt.Fprintf(w, "verification  %s", c.VerificationStatus)
	if len(c.VerificationFlags) > 0 {
		fmt.Fprintf(w, " [%s]", strings.Join(c.VerificationFlags, ", "))
	}
	fmt.Fprintln(w)
}

func parseRange() (travel.Date, travel.Date, error) {
	from, err := travel.ParseDate(rangeFlags.from)
	if err != nil {
		return from, from, err
	}
	to := from
	if rangeFlags.to != "" {
		if to, err = travel.ParseDate(rangeFlags.to); err != nil {
			return from, to, err
		}
	}
	if to.Before(from) {
		return from, to, &travel.ValidationError{Field: "to", Message: "must not be before from"}
	}
	return from, to, nil
}

func runRecalculate(cmd *cobra.Command, args []string) error {
	from, to, err := parseRange()
	if err != nil {
		return err
	}

	app, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	sum, err := app.svc.Recalculate(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s..%s: %d recalculated, %d failed, %d days rebuilt\n",
		sum.From, sum.To, sum.Recalculated, sum.Failed, sum.DaysRebuilt)
	for _, e := range sum.Errors {
		fmt.Fprintf(out, "  %s\n", e)
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d calculations failed", sum.Failed)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	from, to, err := parseRange()
	if err != nil {
		return err
	}
	dir := rangeFlags.outDir
	if dir == "" {
		dir = cfg.Scheduler.ExportDir
	}

	app, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	var path string
	switch args[0] {
	case "daily":
		seqs, err := app.svc.DailySummaries(ctx, travel.SequenceFilter{StaffID: rangeFlags.staffID, From: from, To: to})
		if err != nil {
			return err
		}
		path = filepath.Join(dir, report.DailyFileName(from, to))
		err = writeWorkbook(path, func(w io.Writer) error { return report.WriteDailySummaries(w, seqs) })
		if err != nil {
			return err
		}
	case "statements":
		if path, err = api.ExportStatements(ctx, app.svc, dir, from, to); err != nil {
			return err
		}
	case "calculations":
		calcs, err := app.svc.ListCalculations(ctx, travel.CalculationFilter{StaffID: rangeFlags.staffID, From: from, To: to})
		if err != nil {
			return err
		}
		path = filepath.Join(dir, fmt.Sprintf("travel-calculations-%s_%s.xlsx", from, to))
		err = writeWorkbook(path, func(w io.Writer) error { return report.WriteCalculations(w, calcs) })
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export %q (daily, statements or calculations)", args[0])
	}

	logger.Info("export written", zap.String("kind", args[0]), zap.String("path", path))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func writeWorkbook(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dialect, err := sqldb.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return err
	}
	// Open migrates.
	store, err := sqldb.Open(cmd.Context(), dialect, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("schema up to date", zap.String("driver", string(dialect)))
	return nil
}
