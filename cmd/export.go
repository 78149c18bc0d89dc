package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/fichajes/internal/export"
)

var (
	exportMonth  string
	exportFormat string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the monthly report as XLSX and/or PDF files",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportMonth, "month", "m", "", "Month (YYYY-MM); defaults to the current month")
	exportCmd.Flags().StringVar(&exportFormat, "format", "all", "Output format: xlsx, pdf, csv, json, all (xlsx and pdf)")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (default from config, else .)")
}

// exportFormats expands the --format flag.
func exportFormats(s string) ([]export.Format, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return []export.Format{export.FormatXLSX, export.FormatPDF}, nil
	}
	var out []export.Format
	for _, part := range strings.Split(s, ",") {
		f, err := export.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if f == export.FormatMarkdown {
			return nil, fmt.Errorf("%w: md is only available from \"fichajes report\"", export.ErrUnknownFormat)
		}
		out = append(out, f)
	}
	return out, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	month, err := resolveMonth(exportMonth)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	formats, err := exportFormats(exportFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
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

	dir := exportDir
	if dir == "" {
		dir = a.cfg.Export.Dir
	}
	r := export.Report{
		Month: month,
		Rows:  a.aggregator().Report(month, a.session.Store.Employees(), a.session.Store.Entry),
	}

	paths := make([]string, len(formats))
	var g errgroup.Group
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			p, err := export.WriteFile(dir, f, r)
			if err != nil {
				return fmt.Errorf("%s export: %w", f, err)
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.exit(2)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
