package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/fichajes/internal/calendar"
	"github.com/Tiliavir/fichajes/internal/model"
	"github.com/Tiliavir/fichajes/internal/stats"
	"github.com/Tiliavir/fichajes/internal/timecalc"
)

var (
	sheetEmployee int
	sheetMonth    string
)

var sheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Show one employee's month day by day",
	Args:  cobra.NoArgs,
	RunE:  runSheet,
}

func init() {
	sheetCmd.Flags().IntVarP(&sheetEmployee, "employee", "e", 1, "Employee id")
	sheetCmd.Flags().StringVarP(&sheetMonth, "month", "m", "", "Month (YYYY-MM); defaults to the current month")
}

var weekdaysES = [...]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}

var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Padding(0, 1)
	plainStyle = lipgloss.NewStyle().Padding(0, 1)
	boldStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

func runSheet(cmd *cobra.Command, args []string) error {
	month, err := resolveMonth(sheetMonth)
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

	emp, ok := a.session.Store.Employee(sheetEmployee)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown employee %d\n", sheetEmployee)
		a.exit(1)
	}

	holidays := (&calendar.Holidays{}).Year(month.Year)
	rows, muted, warned := sheetRows(month, emp, holidays, a.session.Store.Entry)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Día", "Tipo", "Entrada", "Salida", "Pausa", "Horas", "Notas").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return boldStyle
			case warned[row]:
				return warnStyle
			case muted[row]:
				return mutedStyle
			default:
				return plainStyle
			}
		})

	fmt.Printf("%s – %s\n", emp.Name, month.LongES())
	fmt.Println(t.String())

	s := a.aggregator().Employee(month, emp, a.session.Store.Entry)
	fmt.Printf("Teóricas %s  Trabajadas %s  Ausencia %s  Saldo %s  Guardia %s  Vacaciones %d  Asuntos %d  Baja %d\n",
		timecalc.FormatHours(s.Standard), timecalc.FormatHours(s.Regular),
		timecalc.FormatHours(s.PersonalHours), timecalc.FormatHours(s.Balance),
		timecalc.FormatHours(s.Holiday), s.Vac, s.Personal, s.Sick)
	return nil
}

// sheetRows renders each day of month. muted marks weekends and holidays;
// warned marks Friday afternoons.
func sheetRows(month calendar.Month, emp model.Employee, holidays calendar.HolidaySet, lookup stats.Lookup) ([][]string, map[int]bool, map[int]bool) {
	rows := make([][]string, 0, month.Days())
	muted := map[int]bool{}
	warned := map[int]bool{}

	for d := 1; d <= month.Days(); d++ {
		date := month.Date(d)
		iso := date.Format(calendar.DateLayout)
		entry, found := lookup(model.NewKey(iso, emp.ID))

		label := fmt.Sprintf("%s %02d", weekdayES(date), d)
		var marks []string
		if calendar.IsWeekend(date) {
			marks = append(marks, "finde")
		}
		if holidays.Contains(iso) {
			marks = append(marks, "festivo")
		}
		if len(marks) > 0 {
			muted[len(rows)] = true
			label += " (" + strings.Join(marks, ", ") + ")"
		}

		if !found {
			rows = append(rows, []string{label, "", "", "", "", "", ""})
			continue
		}

		hours := dayHours(entry)
		notes := entry.Notes
		if p, ok := entry.Day().(model.PersonalAffair); ok && p.Partial() {
			notes = strings.TrimSpace(fmt.Sprintf("salida %s-%s %s %s", p.Out, p.In, p.Reason, notes))
		}
		span := timecalc.MinutesToHours(timecalc.MinutesBetween(entry.Start, entry.End))
		if entry.Kind() != model.Vacaciones && entry.Kind() != model.BajaMedica &&
			calendar.FridayAfternoon(date, entry.End, span) {
			warned[len(rows)] = true
			notes = strings.TrimSpace("⚠ viernes tarde " + notes)
		}

		brk := ""
		if entry.Break != nil {
			brk = timecalc.FormatDuration(entry.BreakMinutes())
		}
		rows = append(rows, []string{
			label, string(entry.Kind()), entry.Start, entry.End, brk,
			timecalc.FormatHours(hours), notes,
		})
	}
	return rows, muted, warned
}

// dayHours is the worked time shown for an entry; absences show zero.
func dayHours(e model.DayEntry) float64 {
	switch day := e.Day().(type) {
	case model.WorkDay:
		return timecalc.NetHours(day.Start, day.End, day.Break)
	case model.PersonalAffair:
		if day.Partial() {
			return timecalc.NetHours(day.Start, day.End, day.Break)
		}
	}
	return 0
}

func weekdayES(t time.Time) string {
	return weekdaysES[t.Weekday()]
}
