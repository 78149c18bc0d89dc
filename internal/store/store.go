// Package store holds the in-memory timesheet and keeps it consistent with
// remote snapshots and the durable local cache.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Tiliavir/fichajes/internal/cache"
	"github.com/Tiliavir/fichajes/internal/model"
)

var (
	ErrUnknownEmployee = errors.New("unknown employee")
	ErrEmptyName       = errors.New("employee name must not be empty")
)

// Store is the session's entry map and employee roster. Every change is
// written through to the cache before the call returns.
type Store struct {
	mu        sync.Mutex
	entries   map[model.Key]model.DayEntry
	employees []model.Employee
	names     map[int]pendingName
	dirty     *DirtySet
	seq       uint64
	cache     cache.Store
	log       *slog.Logger
}

type pendingName struct {
	name  string
	since time.Time
}

// New returns an empty store with the default roster. c may be nil, in
// which case nothing is persisted.
func New(c cache.Store, policy Policy, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		entries:   make(map[model.Key]model.DayEntry),
		employees: model.DefaultEmployees(),
		names:     make(map[int]pendingName),
		dirty:     NewDirtySet(policy),
		cache:     c,
		log:       log,
	}
}

// LoadCache replaces the in-memory state with the cached copy. It reports
// whether any entries were found.
func (s *Store) LoadCache() (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	found := false

	data, err := s.cache.Load(cache.SlotEntries)
	switch {
	case errors.Is(err, cache.ErrNotFound):
	case err != nil:
		errs = append(errs, err)
	default:
		entries := make(map[model.Key]model.DayEntry)
		if err := json.Unmarshal(data, &entries); err != nil {
			errs = append(errs, fmt.Errorf("decoding cached entries: %w", err))
		} else {
			s.entries = entries
			found = len(entries) > 0
		}
	}

	data, err = s.cache.Load(cache.SlotEmployees)
	switch {
	case errors.Is(err, cache.ErrNotFound):
	case err != nil:
		errs = append(errs, err)
	default:
		var emps []model.Employee
		if err := json.Unmarshal(data, &emps); err != nil {
			errs = append(errs, fmt.Errorf("decoding cached employees: %w", err))
		} else if len(emps) > 0 {
			s.employees = emps
		}
	}

	data, err = s.cache.Load(cache.SlotPending)
	switch {
	case errors.Is(err, cache.ErrNotFound):
	case err != nil:
		errs = append(errs, err)
	default:
		var p savedPending
		if err := json.Unmarshal(data, &p); err != nil {
			errs = append(errs, fmt.Errorf("decoding cached pending edits: %w", err))
		} else {
			s.restorePending(p)
			found = found || len(p.Entries) > 0
		}
	}

	return found, errors.Join(errs...)
}

// savedPending is the cached form of edits the remote store has not echoed.
type savedPending struct {
	Entries map[model.Key]savedMark `json:"entries,omitempty"`
	Names   map[int]savedName       `json:"names,omitempty"`
}

type savedName struct {
	Name  string    `json:"name"`
	Since time.Time `json:"since"`
}

func (s *Store) restorePending(p savedPending) {
	s.dirty.restore(p.Entries)
	if len(p.Entries) > 0 {
		entries := make(map[model.Key]model.DayEntry, len(s.entries)+len(p.Entries))
		for k, v := range s.entries {
			entries[k] = v
		}
		for k := range p.Entries {
			if m, ok := s.dirty.marks[k]; ok {
				entries[k] = m.value
			}
		}
		s.entries = entries
	}
	for id, n := range p.Names {
		if _, ok := s.names[id]; ok {
			continue
		}
		s.names[id] = pendingName{name: n.Name, since: n.Since}
		for i, e := range s.employees {
			if e.ID == id {
				emps := append([]model.Employee(nil), s.employees...)
				emps[i].Name = n.Name
				s.employees = emps
				break
			}
		}
	}
}

// Entry returns the stored entry for key.
func (s *Store) Entry(key model.Key) (model.DayEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Employees returns a copy of the roster.
func (s *Store) Employees() []model.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Employee(nil), s.employees...)
}

// Employee returns the employee with id.
func (s *Store) Employee(id int) (model.Employee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.ID == id {
			return e, true
		}
	}
	return model.Employee{}, false
}

// Seq returns the sequence number of the latest local edit.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Edit is one applied field change, ready to be pushed.
type Edit struct {
	Key   model.Key
	Date  string
	EmpID int
	Value model.DayEntry
	Seq   uint64
}

// SetField applies a single field change to the entry for date and empID,
// creating the entry if needed, and marks the key dirty. The change stays in
// memory even when the cache write fails; the error is still returned.
func (s *Store) SetField(date string, empID int, field, value string) (Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.NewKey(date, empID)
	cur, ok := s.entries[key]
	if !ok {
		cur = model.DayEntry{Type: model.Presencial}
	}
	next, err := cur.With(field, value)
	if err != nil {
		return Edit{}, err
	}

	s.seq++
	entries := make(map[model.Key]model.DayEntry, len(s.entries)+1)
	for k, v := range s.entries {
		entries[k] = v
	}
	entries[key] = next
	s.entries = entries
	s.dirty.Mark(key, next, s.seq)

	edit := Edit{Key: key, Date: date, EmpID: empID, Value: next, Seq: s.seq}
	return edit, errors.Join(s.persistEntries(), s.persistPending())
}

// PushFailed records that the push for edit did not reach the remote store.
// The edit is returned by Unpushed until a later push succeeds.
func (s *Store) PushFailed(edit Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty.Failed(edit.Key, edit.Seq)
	return s.persistPending()
}

// Pushed records that edit reached the remote store.
func (s *Store) Pushed(edit Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty.Pushed(edit.Key, edit.Seq)
	return s.persistPending()
}

// Unpushed returns the dirty edits whose last push failed, in key order.
func (s *Store) Unpushed() []Edit {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Edit
	for _, p := range s.dirty.Pending() {
		if !p.Failed {
			continue
		}
		date, empID, err := p.Key.Split()
		if err != nil {
			continue
		}
		m := s.dirty.marks[p.Key]
		out = append(out, Edit{Key: p.Key, Date: date, EmpID: empID, Value: m.value, Seq: m.seq})
	}
	return out
}

// RenameEmployee changes an employee's name locally. Snapshots will not
// revert the name until they echo it back or the dirty policy TTL passes.
func (s *Store) RenameEmployee(id int, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, e := range s.employees {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownEmployee, id)
	}
	emps := append([]model.Employee(nil), s.employees...)
	emps[idx].Name = name
	s.employees = emps
	s.names[id] = pendingName{name: name, since: s.dirty.now()}
	return errors.Join(s.persistEmployees(), s.persistPending())
}

// ApplySnapshot merges a remote snapshot. fetchSeq is Seq() as read before
// the snapshot was requested.
func (s *Store) ApplySnapshot(snap model.Snapshot, fetchSeq uint64) (MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, res := applySnapshot(s.entries, snap.Entries, s.dirty, fetchSeq)
	s.entries = merged

	var errs []error
	if err := s.persistEntries(); err != nil {
		errs = append(errs, err)
	}
	if len(snap.Employees) > 0 {
		s.employees = s.mergeEmployees(snap.Employees)
		if err := s.persistEmployees(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.persistPending(); err != nil {
		errs = append(errs, err)
	}
	if res.Expired > 0 || res.Swept > 0 {
		s.log.Warn("dropped unconfirmed local edits", "expired", res.Expired, "swept", res.Swept)
	}
	return res, errors.Join(errs...)
}

// mergeEmployees takes the remote roster, keeping names renamed locally that
// the remote has not caught up with yet.
func (s *Store) mergeEmployees(remote []model.Employee) []model.Employee {
	out := make([]model.Employee, len(remote))
	copy(out, remote)
	now := s.dirty.now()
	for i, e := range out {
		p, ok := s.names[e.ID]
		if !ok {
			continue
		}
		switch {
		case p.name == e.Name:
			delete(s.names, e.ID)
		case s.dirty.policy.TTL > 0 && now.Sub(p.since) >= s.dirty.policy.TTL:
			delete(s.names, e.ID)
		default:
			out[i].Name = p.name
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dirty reports whether key has an unconfirmed local edit.
func (s *Store) Dirty(key model.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty.Has(key)
}

// Pending lists unconfirmed local edits.
func (s *Store) Pending() []PendingWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty.Pending()
}

func (s *Store) persistEntries() error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}
	if err := s.cache.Save(cache.SlotEntries, data); err != nil {
		return fmt.Errorf("writing entries to cache: %w", err)
	}
	return nil
}

func (s *Store) persistEmployees() error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(s.employees)
	if err != nil {
		return fmt.Errorf("encoding employees: %w", err)
	}
	if err := s.cache.Save(cache.SlotEmployees, data); err != nil {
		return fmt.Errorf("writing employees to cache: %w", err)
	}
	return nil
}

func (s *Store) persistPending() error {
	if s.cache == nil {
		return nil
	}
	p := savedPending{Entries: s.dirty.save()}
	if len(s.names) > 0 {
		p.Names = make(map[int]savedName, len(s.names))
		for id, n := range s.names {
			p.Names[id] = savedName{Name: n.name, Since: n.since}
		}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding pending edits: %w", err)
	}
	if err := s.cache.Save(cache.SlotPending, data); err != nil {
		return fmt.Errorf("writing pending edits to cache: %w", err)
	}
	return nil
}
