package timecalc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const minutesPerDay = 24 * 60

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// MinutesBetween returns the minutes from start to end. Missing or malformed
// times yield 0. An end before the start is read as a shift that crosses
// midnight.
func MinutesBetween(start, end string) int {
	s, ok := ParseClock(start)
	if !ok {
		return 0
	}
	e, ok := ParseClock(end)
	if !ok {
		return 0
	}
	diff := e - s
	if diff < 0 {
		diff += minutesPerDay
	}
	return diff
}

// NetHours returns the worked hours between start and end minus the break,
// rounded to two decimals. The result is never negative.
func NetHours(start, end string, breakMinutes int) float64 {
	if breakMinutes < 0 {
		breakMinutes = 0
	}
	net := MinutesBetween(start, end) - breakMinutes
	if net <= 0 {
		return 0
	}
	return MinutesToHours(net)
}

// MinutesToHours converts minutes to hours rounded to two decimals.
func MinutesToHours(minutes int) float64 {
	return decimal.NewFromInt(int64(minutes)).
		Div(decimal.NewFromInt(60)).
		Round(2).
		InexactFloat64()
}

// Round2 rounds h to two decimals.
func Round2(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return decimal.NewFromFloat(h).Round(2).InexactFloat64()
}

// FormatHours formats hours with two decimals, e.g. "7.50" or "-1.00".
func FormatHours(h float64) string {
	return decimal.NewFromFloat(Round2(h)).StringFixed(2)
}

// FormatDuration formats minutes as a human-readable string like "7h 30m" or "45m".
func FormatDuration(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("%s%dh %dm", sign, h, m)
	}
	return fmt.Sprintf("%s%dm", sign, m)
}
