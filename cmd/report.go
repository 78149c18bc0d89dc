package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/fichajes/internal/export"
)

var (
	reportMonth  string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the monthly hour report for every employee",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportMonth, "month", "m", "", "Month (YYYY-MM); defaults to the current month")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	month, err := resolveMonth(reportMonth)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	format, err := export.ParseFormat(reportFormat)
	if err != nil || format == export.FormatXLSX || format == export.FormatPDF {
		fmt.Fprintf(os.Stderr, "invalid --format %q: use md, csv or json (see \"fichajes export\" for files)\n", reportFormat)
		os.Exit(1)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer a.Close()
	refreshQuietly(ctx, a)

	r := export.Report{
		Month: month,
		Rows:  a.aggregator().Report(month, a.session.Store.Employees(), a.session.Store.Entry),
	}
	if err := export.Write(os.Stdout, format, r); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.exit(2)
	}
	return nil
}
