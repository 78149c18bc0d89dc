package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Employee is a member of the team. IDs are assigned by the user and stable.
type Employee struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts ids sent as numbers or numeric strings, which is how
// spreadsheet cells sometimes come back.
func (e *Employee) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Name any             `json:"name"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var id int
	var s string
	if err := json.Unmarshal(raw.ID, &id); err != nil {
		if err := json.Unmarshal(raw.ID, &s); err != nil {
			return fmt.Errorf("employee id %s: %w", raw.ID, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("employee id %q: %w", s, err)
		}
		id = n
	}
	e.ID = id
	switch v := raw.Name.(type) {
	case string:
		e.Name = v
	case nil:
		e.Name = ""
	default:
		e.Name = fmt.Sprint(v)
	}
	return nil
}

// DefaultEmployees is the roster used before anything has been loaded.
func DefaultEmployees() []Employee {
	out := make([]Employee, 6)
	for i := range out {
		out[i] = Employee{ID: i + 1, Name: fmt.Sprintf("Empleado %d", i+1)}
	}
	return out
}

// Snapshot is the full state returned by the remote store.
type Snapshot struct {
	Entries   map[Key]DayEntry `json:"entries"`
	Employees []Employee       `json:"employees"`
}
