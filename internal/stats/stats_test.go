package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/fichajes/internal/calendar"
	"github.com/Tiliavir/fichajes/internal/model"
	"github.com/Tiliavir/fichajes/internal/stats"
)

var march2026 = calendar.Month{Year: 2026, Month: time.March}

func mins(m int) *model.Minutes {
	v := model.Minutes(m)
	return &v
}

func lookupFrom(entries map[model.Key]model.DayEntry) stats.Lookup {
	return func(k model.Key) (model.DayEntry, bool) {
		e, ok := entries[k]
		return e, ok
	}
}

func aggregate(t *testing.T, month calendar.Month, entries map[model.Key]model.DayEntry) stats.Stats {
	t.Helper()
	agg := stats.New(&calendar.Holidays{})
	return agg.Employee(month, model.Employee{ID: 1, Name: "Ana"}, lookupFrom(entries))
}

func TestWorkdayOnTuesday(t *testing.T) {
	// 2026-03-03 is a Tuesday.
	s := aggregate(t, march2026, map[model.Key]model.DayEntry{
		model.NewKey("2026-03-03", 1): {Type: model.Presencial, Start: "09:00", End: "17:00", Break: mins(60)},
	})
	assert.Equal(t, 8.0, s.Standard)
	assert.Equal(t, 7.0, s.Regular)
	assert.Equal(t, -1.0, s.Balance)
	assert.Equal(t, 0.0, s.Holiday)
	assert.Equal(t, 1, s.WorkedDays)
}

func TestVacationDay(t *testing.T) {
	s := aggregate(t, march2026, map[model.Key]model.DayEntry{
		model.NewKey("2026-03-03", 1): {Type: model.Vacaciones, Start: "09:00", End: "17:00", Break: mins(60)},
	})
	assert.Equal(t, 1, s.Vac)
	assert.Equal(t, 0.0, s.Standard)
	assert.Equal(t, 0.0, s.Regular)
	assert.Equal(t, 0.0, s.Balance)
}

func TestSickLeaveIgnoresStaleTimes(t *testing.T) {
	s := aggregate(t, march2026, map[model.Key]model.DayEntry{
		model.NewKey("2026-03-03", 1): {Type: model.BajaMedica, Start: "09:00", End: "17:00"},
	})
	assert.Equal(t, 1, s.Sick)
	assert.Equal(t, 8.0, s.Standard)
	assert.Equal(t, 0.0, s.Regular)
	assert.Equal(t, -8.0, s.Balance)
	assert.Equal(t, 0, s.WorkedDays)
}

func TestSickLeaveOnWeekendOwesNothing(t *testing.T) {
	// 2026-03-07 is a Saturday.
	s := aggregate(t, march2026, map[model.Key]model.DayEntry{
		model.NewKey("2026-03-07", 1): {Type: model.BajaMedica},
	})
	assert.Equal(t, 1, s.Sick)
	assert.Equal(t, 0.0, s.Standard)
	assert.Equal(t, 0.0, s.Holiday)
	assert.Equal(t, 0.0, s.Balance)
}

func TestWorkOnNationalHoliday(t *testing.T) {
	october := calendar.Month{Year: 2026, Month: time.October}
	s := aggregate(t, october, map[model.Key]model.DayEntry{
		model.NewKey("2026-10-12", 1): {Type: model.GuardiaFestivo, Start: "10:00", End: "14:00", Break: mins(0)},
	})
	assert.Equal(t, 4.0, s.Holiday)
	assert.Equal(t, 0.0, s.Standard)
	assert.Equal(t, 0.0, s.Regular)
	assert.Equal(t, 0.0, s.Balance)
}

func TestWeekendWorkGoesToHolidayPool(t *testing.T) {
	// 2026-03-07 is a Saturday.
	s := aggregate(t, march2026, map[model.Key]model.DayEntry{
		model.NewKey("2026-03-07", 1): {Start: "08:00", End: "12:30"},
	})
	assert.Equal(t, 4.5, s.Holiday)
	assert.Equal(t, 0.0, s.Balance)
}

func TestPartialPersonalAffair(t *testing.T) {
	s := aggregate(t, march2026, map[model.Key]model.DayEntry{
		model.NewKey("2026-03-03", 1): {
			Type: model.AsuntosPropios, Start: "09:00", End: "13:00", Break: mins(0),
			POut: "13:00", PIn: "15:00", Reason: "médico",
		},
	})
	assert.Equal(t, 8.0, s.Standard)
	assert.Equal(t, 4.0, s.Regular)
	assert.Equal(t, 2.0, s.PersonalHours)
	assert.Equal(t, -2.0, s.Balance)
	assert.Equal(t, 0, s.Personal)
}

func TestFullPersonalAffair(t *testing.T) {
	s := aggregate(t, march2026, map[model.Key]model.DayEntry{
		model.NewKey("2026-03-03", 1): {Type: model.AsuntosPropios, Start: "09:00"},
	})
	assert.Equal(t, 1, s.Personal)
	assert.Equal(t, 0.0, s.Standard)
	assert.Equal(t, 0.0, s.PersonalHours)
}

func TestBalanceDecompositionForNormalWorkdays(t *testing.T) {
	entries := map[model.Key]model.DayEntry{}
	var workdays int
	for d := 1; d <= march2026.Days(); d++ {
		date := march2026.Date(d)
		if calendar.IsWeekend(date) {
			continue
		}
		workdays++
		entries[model.NewKey(date.Format(calendar.DateLayout), 1)] = model.DayEntry{
			Start: "08:00", End: "16:45", Break: mins(30),
		}
	}
	s := aggregate(t, march2026, entries)
	assert.Equal(t, float64(8*workdays), s.Standard)
	assert.InDelta(t, s.Regular-s.Standard, s.Balance, 0.001)
	assert.Equal(t, workdays, s.WorkedDays)
}

func TestEmptyWorkdaysAreNotChargedByDefault(t *testing.T) {
	s := aggregate(t, march2026, nil)
	assert.Equal(t, stats.Stats{EmployeeID: 1, Employee: "Ana"}, s)

	agg := stats.New(&calendar.Holidays{})
	agg.CountEmptyWorkdays = true
	s = agg.Employee(march2026, model.Employee{ID: 1, Name: "Ana"}, lookupFrom(nil))
	// March 2026 has 22 weekdays and no holidays.
	assert.Equal(t, 176.0, s.Standard)
	assert.Equal(t, -176.0, s.Balance)
}

func TestReportAndTotals(t *testing.T) {
	entries := map[model.Key]model.DayEntry{
		model.NewKey("2026-03-03", 1): {Start: "09:00", End: "17:00", Break: mins(60)},
		model.NewKey("2026-03-03", 2): {Start: "09:00", End: "18:00", Break: mins(60)},
		model.NewKey("2026-03-04", 2): {Type: model.Vacaciones},
	}
	agg := stats.New(&calendar.Holidays{})
	rows := agg.Report(march2026, []model.Employee{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Luis"}}, lookupFrom(entries))
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0].Employee)
	assert.Equal(t, 0.0, rows[1].Balance)
	assert.Equal(t, 1, rows[1].Vac)

	total := stats.Totals(rows)
	assert.Equal(t, 16.0, total.Standard)
	assert.Equal(t, 15.0, total.Regular)
	assert.Equal(t, -1.0, total.Balance)
	assert.Equal(t, 1, total.Vac)
}
