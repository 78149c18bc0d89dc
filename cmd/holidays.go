package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/fichajes/internal/calendar"
)

var holidaysYear int

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "List the public holidays used for a year",
	Args:  cobra.NoArgs,
	RunE:  runHolidays,
}

func init() {
	holidaysCmd.Flags().IntVarP(&holidaysYear, "year", "y", 0, "Year (defaults to the current year)")
}

func runHolidays(cmd *cobra.Command, args []string) error {
	year := holidaysYear
	if year == 0 {
		year = time.Now().Year()
	}
	if year < 1583 || year > 9999 {
		fmt.Fprintf(os.Stderr, "invalid --year %d\n", year)
		os.Exit(1)
	}

	for _, iso := range calendar.HolidaysForYear(year).Sorted() {
		d, err := calendar.ParseDate(iso)
		if err != nil {
			continue
		}
		fmt.Printf("%s  %s\n", iso, weekdayES(d))
	}
	return nil
}
