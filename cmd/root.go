package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagEndpoint string
	flagOffline  bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "fichajes",
	Short: "Team timesheet synchronised with a shared spreadsheet",
	Long: `fichajes records daily clock-in/clock-out entries for a small team,
keeps them in sync with a spreadsheet web app and produces monthly hour
reports. Settings live in ~/.fichajes/config.json.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "Remote store URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Work from the local cache only")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(sheetCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(employeesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(devstoreCmd)
}
