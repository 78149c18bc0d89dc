// Package calendar computes public holidays and the day-of-week predicates
// used by the hour accounting.
package calendar

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Tiliavir/fichajes/internal/timecalc"
)

// DateLayout is the ISO date format used for entry keys and holiday sets.
const DateLayout = "2006-01-02"

// fixedHolidays are month/day pairs observed every year.
var fixedHolidays = [][2]int{
	{1, 1}, {1, 6}, {5, 1}, {6, 24}, {8, 15}, {9, 11}, {9, 24},
	{10, 12}, {11, 1}, {12, 6}, {12, 8}, {12, 25}, {12, 26},
}

// Offsets from Easter Sunday: Good Friday, Easter Monday and Whit Monday.
var easterOffsets = []int{-2, 1, 50}

// EasterDate returns Gregorian Easter Sunday for year (Meeus/Jones/Butcher).
func EasterDate(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// HolidaySet is the set of public holidays of one year, as ISO dates.
type HolidaySet map[string]struct{}

// Contains reports whether date (YYYY-MM-DD) is a holiday.
func (s HolidaySet) Contains(date string) bool {
	_, ok := s[date]
	return ok
}

// Sorted returns the holidays in date order.
func (s HolidaySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// HolidaysForYear computes the holiday set of year. It has no hidden state.
func HolidaysForYear(year int) HolidaySet {
	set := make(HolidaySet, len(fixedHolidays)+len(easterOffsets))
	for _, md := range fixedHolidays {
		set[FormatDate(year, time.Month(md[0]), md[1])] = struct{}{}
	}
	easter := EasterDate(year)
	for _, off := range easterOffsets {
		set[easter.AddDate(0, 0, off).Format(DateLayout)] = struct{}{}
	}
	return set
}

// Holidays caches holiday sets per year. The zero value is ready to use.
type Holidays struct {
	mu    sync.Mutex
	years map[int]HolidaySet
}

// Year returns the cached holiday set for year, computing it on first use.
// Callers must not modify the returned set.
func (h *Holidays) Year(year int) HolidaySet {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.years == nil {
		h.years = make(map[int]HolidaySet)
	}
	set, ok := h.years[year]
	if !ok {
		set = HolidaysForYear(year)
		h.years[year] = set
	}
	return set
}

// IsHoliday reports whether t falls on a public holiday.
func (h *Holidays) IsHoliday(t time.Time) bool {
	return h.Year(t.Year()).Contains(t.Format(DateLayout))
}

// IsWeekend reports whether t is a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsFriday reports whether t is a Friday.
func IsFriday(t time.Time) bool {
	return t.Weekday() == time.Friday
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatDate returns the ISO date for year, month and day.
func FormatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// ParseDate parses an ISO date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// Friday entries ending past this hour and spanning more than fridayMaxHours are flagged.
const (
	fridayLateHour = 15
	fridayMaxHours = 7.0
)

// FridayAfternoon reports whether a Friday entry ending at end and spanning
// hours from start to end, breaks included, runs into the afternoon.
func FridayAfternoon(t time.Time, end string, hours float64) bool {
	if !IsFriday(t) {
		return false
	}
	m, ok := timecalc.ParseClock(end)
	if !ok {
		return false
	}
	return m >= fridayLateHour*60 && hours > fridayMaxHours
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", s, err)
	}
	return MonthOf(t), nil
}

// Days returns the number of days in m.
func (m Month) Days() int {
	return DaysInMonth(m.Year, m.Month)
}

// Date returns day d of m at midnight UTC.
func (m Month) Date(d int) time.Time {
	return time.Date(m.Year, m.Month, d, 0, 0, 0, 0, time.UTC)
}

// Prev returns the month before m.
func (m Month) Prev() Month {
	return MonthOf(time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.UTC))
}

// Next returns the month after m.
func (m Month) Next() Month {
	return MonthOf(time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

var monthNamesES = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// LongES returns the Spanish long form, e.g. "marzo de 2026".
func (m Month) LongES() string {
	return fmt.Sprintf("%s de %d", monthNamesES[m.Month-1], m.Year)
}
