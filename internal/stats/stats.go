// Package stats aggregates an employee's day entries into monthly hour
// accounting.
package stats

import (
	"github.com/Tiliavir/fichajes/internal/calendar"
	"github.com/Tiliavir/fichajes/internal/model"
	"github.com/Tiliavir/fichajes/internal/timecalc"
)

// StandardDay is the theoretical length of a workday in hours.
const StandardDay = 8.0

// Stats is the monthly accounting for one employee. Hours are rounded to two
// decimals.
type Stats struct {
	EmployeeID    int     `json:"employee_id" csv:"-"`
	Employee      string  `json:"employee" csv:"Empleado"`
	Standard      float64 `json:"standard" csv:"H. Teóricas"`
	Regular       float64 `json:"regular" csv:"Trabajadas"`
	PersonalHours float64 `json:"personal_hours" csv:"Ausencia Just."`
	Balance       float64 `json:"balance" csv:"Saldo"`
	Holiday       float64 `json:"holiday" csv:"Guardia Festivo"`
	Vac           int     `json:"vac" csv:"Vacaciones"`
	Personal      int     `json:"personal" csv:"Asuntos"`
	Sick          int     `json:"sick" csv:"Baja"`
	WorkedDays    int     `json:"worked_days" csv:"-"`
}

// Lookup returns the stored entry for key, if there is one.
type Lookup func(model.Key) (model.DayEntry, bool)

// Aggregator computes Stats. The zero value needs Holidays set.
type Aggregator struct {
	Holidays *calendar.Holidays
	// CountEmptyWorkdays charges StandardDay for workdays with no entry at
	// all. Off by default so that days not yet filled in do not show as a
	// deficit.
	CountEmptyWorkdays bool
}

// New returns an Aggregator backed by holidays.
func New(holidays *calendar.Holidays) *Aggregator {
	return &Aggregator{Holidays: holidays}
}

// Employee walks every day of month for emp.
func (a *Aggregator) Employee(month calendar.Month, emp model.Employee, lookup Lookup) Stats {
	s := Stats{EmployeeID: emp.ID, Employee: emp.Name}
	holidays := a.Holidays.Year(month.Year)

	for d := 1; d <= month.Days(); d++ {
		date := month.Date(d)
		iso := date.Format(calendar.DateLayout)
		entry, found := lookup(model.NewKey(iso, emp.ID))

		switch day := entry.Day().(type) {
		case model.Vacation:
			s.Vac++
		case model.SickLeave:
			s.Sick++
			if calendar.IsWeekend(date) || holidays.Contains(iso) {
				continue
			}
			s.Standard += StandardDay
			s.Balance -= StandardDay
		case model.PersonalAffair:
			if !day.Partial() {
				s.Personal++
				continue
			}
			worked := timecalc.NetHours(day.Start, day.End, day.Break)
			absence := timecalc.MinutesToHours(timecalc.MinutesBetween(day.Out, day.In))
			s.Standard += StandardDay
			s.Regular += worked
			s.PersonalHours += absence
			s.Balance += worked + absence - StandardDay
			s.WorkedDays++
		case model.WorkDay:
			worked := timecalc.NetHours(day.Start, day.End, day.Break)
			if calendar.IsWeekend(date) || holidays.Contains(iso) {
				s.Holiday += worked
				continue
			}
			if !found && !a.CountEmptyWorkdays {
				continue
			}
			s.Standard += StandardDay
			s.Regular += worked
			s.Balance += worked - StandardDay
			if worked > 0 {
				s.WorkedDays++
			}
		}
	}

	s.Standard = timecalc.Round2(s.Standard)
	s.Regular = timecalc.Round2(s.Regular)
	s.PersonalHours = timecalc.Round2(s.PersonalHours)
	s.Balance = timecalc.Round2(s.Balance)
	s.Holiday = timecalc.Round2(s.Holiday)
	return s
}

// Report returns one Stats row per employee, in roster order.
func (a *Aggregator) Report(month calendar.Month, employees []model.Employee, lookup Lookup) []Stats {
	out := make([]Stats, 0, len(employees))
	for _, emp := range employees {
		out = append(out, a.Employee(month, emp, lookup))
	}
	return out
}

// Totals sums rows into a single team line.
func Totals(rows []Stats) Stats {
	t := Stats{Employee: "Total"}
	for _, r := range rows {
		t.Standard += r.Standard
		t.Regular += r.Regular
		t.PersonalHours += r.PersonalHours
		t.Balance += r.Balance
		t.Holiday += r.Holiday
		t.Vac += r.Vac
		t.Personal += r.Personal
		t.Sick += r.Sick
		t.WorkedDays += r.WorkedDays
	}
	t.Standard = timecalc.Round2(t.Standard)
	t.Regular = timecalc.Round2(t.Regular)
	t.PersonalHours = timecalc.Round2(t.PersonalHours)
	t.Balance = timecalc.Round2(t.Balance)
	t.Holiday = timecalc.Round2(t.Holiday)
	return t
}
