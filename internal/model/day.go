package model

// Day is the typed view of a DayEntry. Each variant carries only the fields
// that mean something for its work type.
type Day interface {
	isDay()
}

// WorkDay is a day at the office, remote, or on holiday duty.
type WorkDay struct {
	Type  WorkType
	Start string
	End   string
	Break int
}

// Vacation is a full vacation day. Times are not recorded.
type Vacation struct{}

// SickLeave is a day of medical leave. Times are not recorded.
type SickLeave struct{}

// PersonalAffair is an authorised personal-leave day. When Start and End are
// both set the employee worked part of the day and was away from Out to In.
type PersonalAffair struct {
	Start  string
	End    string
	Break  int
	Out    string
	In     string
	Reason string
}

func (WorkDay) isDay()        {}
func (Vacation) isDay()       {}
func (SickLeave) isDay()      {}
func (PersonalAffair) isDay() {}

// Partial reports whether the employee worked part of the day.
func (p PersonalAffair) Partial() bool {
	return p.Start != "" && p.End != ""
}

// Day returns the typed variant for e.
func (e DayEntry) Day() Day {
	switch k := e.Kind(); k {
	case Vacaciones:
		return Vacation{}
	case BajaMedica:
		return SickLeave{}
	case AsuntosPropios:
		return PersonalAffair{
			Start:  e.Start,
			End:    e.End,
			Break:  e.BreakMinutes(),
			Out:    e.POut,
			In:     e.PIn,
			Reason: e.Reason,
		}
	default:
		return WorkDay{Type: k, Start: e.Start, End: e.End, Break: e.BreakMinutes()}
	}
}
