package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown entry field")
	ErrInvalidType  = errors.New("invalid work type")
	ErrInvalidKey   = errors.New("invalid entry key")
)

// WorkType is the kind of day recorded in a DayEntry. The values are the
// labels stored in the spreadsheet.
type WorkType string

const (
	Presencial     WorkType = "Presencial"
	Teletrabajo    WorkType = "Teletrabajo"
	Vacaciones     WorkType = "Vacaciones"
	AsuntosPropios WorkType = "Asuntos Propios"
	BajaMedica     WorkType = "Baja Médica"
	GuardiaFestivo WorkType = "Guardia (Festivo)"
)

// WorkTypes lists every work type in display order.
var WorkTypes = []WorkType{Presencial, Teletrabajo, Vacaciones, AsuntosPropios, BajaMedica, GuardiaFestivo}

var workTypeAliases = map[string]WorkType{
	"presencial":        Presencial,
	"teletrabajo":       Teletrabajo,
	"vacaciones":        Vacaciones,
	"asuntos propios":   AsuntosPropios,
	"asuntospropios":    AsuntosPropios,
	"baja médica":       BajaMedica,
	"baja medica":       BajaMedica,
	"bajamedica":        BajaMedica,
	"guardia (festivo)": GuardiaFestivo,
	"guardiafestivo":    GuardiaFestivo,
	"guardia":           GuardiaFestivo,
}

// ParseWorkType accepts a stored label or one of its compact aliases,
// case-insensitively.
func ParseWorkType(s string) (WorkType, error) {
	if t, ok := workTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Key identifies one employee's entry for one day: "<YYYY-MM-DD>-<id>".
type Key string

// NewKey builds the key for date (YYYY-MM-DD) and employee id.
func NewKey(date string, empID int) Key {
	return Key(fmt.Sprintf("%s-%d", date, empID))
}

// Split returns the date and employee id encoded in k.
func (k Key) Split() (string, int, error) {
	s := string(k)
	if len(s) < 12 || s[10] != '-' {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	id, err := strconv.Atoi(s[11:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return s[:10], id, nil
}

// Minutes is a break length. Decoding never fails: numbers and numeric
// strings are accepted, anything else decodes as zero.
type Minutes int

func (m *Minutes) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		*m = 0
		return nil
	}
	switch x := v.(type) {
	case float64:
		*m = Minutes(math.Round(x))
	case string:
		*m = ParseMinutes(x)
	default:
		*m = 0
	}
	return nil
}

// ParseMinutes converts user or spreadsheet input to minutes, yielding zero
// for anything non-numeric.
func ParseMinutes(s string) Minutes {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Minutes(math.Round(f))
}

// DefaultBreak is applied the first time a start time is set on an entry
// with no break.
const DefaultBreak Minutes = 60

// DayEntry is the stored record for one employee and one day. It is the wire
// form exchanged with the spreadsheet; use Day to get the typed view.
type DayEntry struct {
	Type   WorkType `json:"type,omitempty"`
	Start  string   `json:"start,omitempty"`
	End    string   `json:"end,omitempty"`
	Break  *Minutes `json:"break,omitempty"`
	Notes  string   `json:"notes,omitempty"`
	POut   string   `json:"pOut,omitempty"`
	PIn    string   `json:"pIn,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// Kind returns the entry type, defaulting to Presencial.
func (e DayEntry) Kind() WorkType {
	if e.Type == "" {
		return Presencial
	}
	if t, err := ParseWorkType(string(e.Type)); err == nil {
		return t
	}
	return Presencial
}

// BreakMinutes returns the break length; unset or negative breaks count as 0.
func (e DayEntry) BreakMinutes() int {
	if e.Break == nil || *e.Break < 0 {
		return 0
	}
	return int(*e.Break)
}

// Equal reports whether e and o hold the same values.
func (e DayEntry) Equal(o DayEntry) bool {
	if (e.Break == nil) != (o.Break == nil) {
		return false
	}
	if e.Break != nil && *e.Break != *o.Break {
		return false
	}
	return e.Type == o.Type && e.Start == o.Start && e.End == o.End &&
		e.Notes == o.Notes && e.POut == o.POut && e.PIn == o.PIn && e.Reason == o.Reason
}

// With returns a copy of e with one field set from user input. Field names
// are the wire names. Setting start on an entry without a break also sets
// the default break.
func (e DayEntry) With(field, value string) (DayEntry, error) {
	value = strings.TrimSpace(value)
	if e.Break != nil {
		b := *e.Break
		e.Break = &b
	}
	switch field {
	case "type":
		t, err := ParseWorkType(value)
		if err != nil {
			return e, err
		}
		e.Type = t
	case "start":
		e.Start = value
		if value != "" && e.Break == nil {
			b := DefaultBreak
			e.Break = &b
		}
	case "end":
		e.End = value
	case "break":
		if value == "" {
			e.Break = nil
			break
		}
		b := ParseMinutes(value)
		e.Break = &b
	case "notes":
		e.Notes = value
	case "pOut":
		e.POut = value
	case "pIn":
		e.PIn = value
	case "reason":
		e.Reason = value
	default:
		return e, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return e, nil
}

// Fields lists the editable wire field names.
var Fields = []string{"type", "start", "end", "break", "notes", "pOut", "pIn", "reason"}
