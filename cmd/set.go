package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/fichajes/internal/calendar"
	"github.com/Tiliavir/fichajes/internal/model"
	"github.com/Tiliavir/fichajes/internal/timecalc"
)

var setEmployee int

var setCmd = &cobra.Command{
	Use:   "set <date> <field> <value>",
	Short: "Set one field of a day entry and push it",
	Long: `Set one field of an employee's entry for a date (YYYY-MM-DD).

Fields: type, start, end, break, notes, pOut, pIn, reason.
Types: Presencial, Teletrabajo, Vacaciones, "Asuntos Propios",
"Baja Médica", "Guardia (Festivo)" (case-insensitive; "guardia" and
"baja medica" also work).

Setting start on an entry without a break also sets a 60 minute break.
An empty value clears the field.`,
	Example: `  fichajes set 2026-03-03 start 09:00 -e 2
  fichajes set 2026-03-04 type vacaciones
  fichajes set 2026-03-05 notes "médico" `,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func init() {
	setCmd.Flags().IntVarP(&setEmployee, "employee", "e", 1, "Employee id")
}

func runSet(cmd *cobra.Command, args []string) error {
	date := args[0]
	field := args[1]
	value := strings.Join(args[2:], " ")

	if _, err := calendar.ParseDate(date); err != nil {
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

	if _, ok := a.session.Store.Employee(setEmployee); !ok {
		fmt.Fprintf(os.Stderr, "unknown employee %d\n", setEmployee)
		a.exit(1)
	}

	edit, err := a.session.Edit(ctx, date, setEmployee, field, value)
	if errors.Is(err, model.ErrUnknownField) || errors.Is(err, model.ErrInvalidType) {
		fmt.Fprintln(os.Stderr, err)
		a.exit(1)
	}

	fmt.Println(describeEntry(edit.Key, edit.Value))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Saved locally but not synchronised: %v\n", err)
		a.exit(2)
	}
	if a.session.Online() {
		fmt.Println("Synchronised.")
	} else {
		fmt.Println("Saved locally (offline).")
	}
	return nil
}

func describeEntry(key model.Key, e model.DayEntry) string {
	parts := []string{string(key), string(e.Kind())}
	if e.Start != "" || e.End != "" {
		parts = append(parts, fmt.Sprintf("%s-%s", e.Start, e.End))
	}
	if e.Break != nil {
		parts = append(parts, "pausa "+timecalc.FormatDuration(e.BreakMinutes()))
	}
	if h := dayHours(e); h > 0 {
		parts = append(parts, timecalc.FormatHours(h)+"h")
	}
	if e.POut != "" || e.PIn != "" {
		parts = append(parts, fmt.Sprintf("salida %s-%s", e.POut, e.PIn))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if e.Notes != "" {
		parts = append(parts, fmt.Sprintf("%q", e.Notes))
	}
	return strings.Join(parts, "  ")
}
