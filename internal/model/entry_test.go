package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/fichajes/internal/model"
)

func TestKeyRoundTrip(t *testing.T) {
	k := model.NewKey("2026-03-03", 4)
	assert.Equal(t, model.Key("2026-03-03-4"), k)

	date, id, err := k.Split()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", date)
	assert.Equal(t, 4, id)

	_, _, err = model.Key("2026-03-03").Split()
	assert.ErrorIs(t, err, model.ErrInvalidKey)
	_, _, err = model.Key("2026-03-03-x").Split()
	assert.ErrorIs(t, err, model.ErrInvalidKey)
}

func TestBreakDecodingIsLenient(t *testing.T) {
	tests := []struct {
		in   string
		want int
		set  bool
	}{
		{`{"break": 45}`, 45, true},
		{`{"break": "30"}`, 30, true},
		{`{"break": " 15 "}`, 15, true},
		{`{"break": "abc"}`, 0, true},
		{`{"break": true}`, 0, true},
		{`{"break": null}`, 0, false},
		{`{}`, 0, false},
		{`{"break": -20}`, 0, true},
	}
	for _, tt := range tests {
		var e model.DayEntry
		require.NoError(t, json.Unmarshal([]byte(tt.in), &e), tt.in)
		assert.Equal(t, tt.want, e.BreakMinutes(), tt.in)
		assert.Equal(t, tt.set, e.Break != nil, tt.in)
	}
}

func TestWithSetsDefaultBreakOnFirstStart(t *testing.T) {
	e, err := model.DayEntry{}.With("start", "09:00")
	require.NoError(t, err)
	require.NotNil(t, e.Break)
	assert.Equal(t, 60, e.BreakMinutes())

	e, err = e.With("break", "30")
	require.NoError(t, err)
	e, err = e.With("start", "08:00")
	require.NoError(t, err)
	assert.Equal(t, 30, e.BreakMinutes())
}

func TestWithDoesNotAliasBreak(t *testing.T) {
	orig, err := model.DayEntry{}.With("break", "15")
	require.NoError(t, err)
	changed, err := orig.With("break", "45")
	require.NoError(t, err)
	assert.Equal(t, 15, orig.BreakMinutes())
	assert.Equal(t, 45, changed.BreakMinutes())
}

func TestWithRejectsUnknownFieldAndType(t *testing.T) {
	_, err := model.DayEntry{}.With("colour", "red")
	assert.ErrorIs(t, err, model.ErrUnknownField)

	_, err = model.DayEntry{}.With("type", "Holidays")
	assert.ErrorIs(t, err, model.ErrInvalidType)

	e, err := model.DayEntry{}.With("type", "asuntospropios")
	require.NoError(t, err)
	assert.Equal(t, model.AsuntosPropios, e.Type)
}

func TestEqual(t *testing.T) {
	a, _ := model.DayEntry{Type: model.Presencial}.With("start", "09:00")
	b, _ := model.DayEntry{Type: model.Presencial}.With("start", "09:00")
	assert.True(t, a.Equal(b))

	b, _ = b.With("break", "61")
	assert.False(t, a.Equal(b))

	c := a
	c.Break = nil
	assert.False(t, a.Equal(c))
	assert.True(t, c.Equal(model.DayEntry{Type: model.Presencial, Start: "09:00"}))
}

func TestDayVariants(t *testing.T) {
	vac := model.DayEntry{Type: model.Vacaciones, Start: "09:00", End: "17:00"}
	assert.Equal(t, model.Vacation{}, vac.Day())

	sick := model.DayEntry{Type: model.BajaMedica, Start: "09:00"}
	assert.Equal(t, model.SickLeave{}, sick.Day())

	var brk model.Minutes = 0
	pa := model.DayEntry{Type: model.AsuntosPropios, Start: "09:00", End: "13:00", Break: &brk, POut: "13:00", PIn: "15:00", Reason: "médico"}
	got, ok := pa.Day().(model.PersonalAffair)
	require.True(t, ok)
	assert.True(t, got.Partial())
	assert.Equal(t, "médico", got.Reason)

	wd, ok := model.DayEntry{}.Day().(model.WorkDay)
	require.True(t, ok)
	assert.Equal(t, model.Presencial, wd.Type)
}

func TestEmployeeAcceptsStringIDs(t *testing.T) {
	var emps []model.Employee
	require.NoError(t, json.Unmarshal([]byte(`[{"id": 1, "name": "Ana"}, {"id": "2", "name": "Luis"}]`), &emps))
	assert.Equal(t, []model.Employee{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Luis"}}, emps)
}

func TestDefaultEmployees(t *testing.T) {
	emps := model.DefaultEmployees()
	require.Len(t, emps, 6)
	assert.Equal(t, model.Employee{ID: 6, Name: "Empleado 6"}, emps[5])
}
