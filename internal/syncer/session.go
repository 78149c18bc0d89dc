// Package syncer runs a client session against the remote store: the poll
// loop, pushes for local edits and the status shown to the user.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/fichajes/internal/model"
	"github.com/Tiliavir/fichajes/internal/store"
)

// Status is the sync state of a session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSaving  Status = "saving"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultPollInterval is used when Options.PollInterval is zero.
const DefaultPollInterval = 8 * time.Second

// ErrOffline is returned by Refresh when the session has no remote.
var ErrOffline = errors.New("no remote store configured")

// Remote is the store the session syncs with.
type Remote interface {
	Fetch(ctx context.Context) (model.Snapshot, error)
	SaveEntry(ctx context.Context, key model.Key, date string, empID int, val model.DayEntry) error
	SaveEmployee(ctx context.Context, id int, name string) error
}

// Options configures a Session.
type Options struct {
	// ID identifies the session; a random one is generated when empty.
	ID           string
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Session is the state of one running client.
type Session struct {
	ID    string
	Store *store.Store

	remote   Remote
	interval time.Duration
	log      *slog.Logger
	editing  atomic.Bool

	mu          sync.Mutex
	status      Status
	lastSuccess time.Time
	lastErr     error
	observers   []func(Status)
	now         func() time.Time
}

// NewSession wires st to r. r may be nil, in which case the session works
// from the local cache only.
func NewSession(st *store.Store, r Remote, opts Options) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		ID:       id,
		Store:    st,
		remote:   r,
		interval: interval,
		log:      log.With("session", id),
		status:   StatusIdle,
		now:      time.Now,
	}
}

// Online reports whether the session has a remote store.
func (s *Session) Online() bool {
	return s.remote != nil
}

// Subscribe registers fn to be called on every status transition.
func (s *Session) Subscribe(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastSuccess returns when the last fetch or push succeeded.
func (s *Session) LastSuccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSuccess
}

// LastError returns the error behind the latest StatusError, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) setStatus(st Status, err error) {
	s.mu.Lock()
	s.status = st
	switch st {
	case StatusSuccess:
		s.lastSuccess = s.now()
		s.lastErr = nil
	case StatusError:
		s.lastErr = err
	}
	observers := append([]func(Status){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(st)
	}
}

// BeginEdit suspends polling until EndEdit is called.
func (s *Session) BeginEdit() { s.editing.Store(true) }

// EndEdit resumes polling.
func (s *Session) EndEdit() { s.editing.Store(false) }

// Editing reports whether polling is suspended.
func (s *Session) Editing() bool { return s.editing.Load() }

// Refresh fetches and merges the remote snapshot. When the fetch fails and
// nothing is loaded yet, the local cache is loaded instead.
func (s *Session) Refresh(ctx context.Context) (store.MergeResult, error) {
	if s.remote == nil {
		s.loadCacheIfEmpty()
		return store.MergeResult{}, ErrOffline
	}

	s.setStatus(StatusLoading, nil)
	if err := s.resend(ctx); err != nil {
		s.log.Warn("re-sending unsynchronised entries", "error", err)
	}
	seq := s.Store.Seq()
	snap, err := s.remote.Fetch(ctx)
	if err != nil {
		s.log.Error("fetch failed", "error", err)
		s.loadCacheIfEmpty()
		s.setStatus(StatusError, err)
		return store.MergeResult{}, err
	}

	res, err := s.Store.ApplySnapshot(snap, seq)
	if err != nil {
		s.log.Warn("cache write failed", "error", err)
	}
	s.log.Debug("snapshot merged",
		"entries", len(snap.Entries),
		"adopted", res.Adopted,
		"kept", res.Kept,
		"stale", res.Stale,
	)
	s.setStatus(StatusSuccess, nil)
	return res, nil
}

// resend pushes again every dirty entry whose last push failed, so a
// recovered remote store receives it before the next snapshot is taken.
func (s *Session) resend(ctx context.Context) error {
	for _, edit := range s.Store.Unpushed() {
		if err := s.remote.SaveEntry(ctx, edit.Key, edit.Date, edit.EmpID, edit.Value); err != nil {
			return err
		}
		if err := s.Store.Pushed(edit); err != nil {
			s.log.Warn("cache write failed", "key", edit.Key, "error", err)
		}
		s.log.Info("entry re-sent", "key", edit.Key)
	}
	return nil
}

func (s *Session) loadCacheIfEmpty() {
	if s.Store.Len() > 0 {
		return
	}
	found, err := s.Store.LoadCache()
	if err != nil {
		s.log.Warn("loading cache", "error", err)
		return
	}
	if found {
		s.log.Info("using cached timesheet", "entries", s.Store.Len())
	}
}

// Edit applies one field change locally and pushes the resulting entry. The
// local change stands even when the push fails.
func (s *Session) Edit(ctx context.Context, date string, empID int, field, value string) (store.Edit, error) {
	edit, err := s.Store.SetField(date, empID, field, value)
	if edit.Seq == 0 {
		return edit, err
	}
	if err != nil {
		s.log.Warn("cache write failed", "key", edit.Key, "error", err)
	}
	if s.remote == nil {
		return edit, nil
	}

	s.setStatus(StatusSaving, nil)
	if err := s.remote.SaveEntry(ctx, edit.Key, edit.Date, edit.EmpID, edit.Value); err != nil {
		if cerr := s.Store.PushFailed(edit); cerr != nil {
			s.log.Warn("cache write failed", "key", edit.Key, "error", cerr)
		}
		s.log.Error("saving entry", "key", edit.Key, "error", err)
		s.setStatus(StatusError, err)
		return edit, err
	}
	if err := s.Store.Pushed(edit); err != nil {
		s.log.Warn("cache write failed", "key", edit.Key, "error", err)
	}
	s.setStatus(StatusSuccess, nil)
	return edit, nil
}

// RenameEmployee renames an employee locally and pushes the new name.
func (s *Session) RenameEmployee(ctx context.Context, id int, name string) error {
	if err := s.Store.RenameEmployee(id, name); err != nil {
		if errors.Is(err, store.ErrEmptyName) || errors.Is(err, store.ErrUnknownEmployee) {
			return err
		}
		s.log.Warn("cache write failed", "employee", id, "error", err)
	}
	if s.remote == nil {
		return nil
	}

	s.setStatus(StatusSaving, nil)
	if err := s.remote.SaveEmployee(ctx, id, name); err != nil {
		s.log.Error("saving employee", "employee", id, "error", err)
		s.setStatus(StatusError, err)
		return err
	}
	s.setStatus(StatusSuccess, nil)
	return nil
}

// Run polls until ctx is done: once immediately, then every poll interval
// unless an edit is in progress. Fetch errors are reported through the
// status and never stop the loop.
func (s *Session) Run(ctx context.Context) error {
	if s.remote == nil {
		return ErrOffline
	}
	_, _ = s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.Editing() {
				s.log.Debug("poll skipped while editing")
				continue
			}
			_, _ = s.Refresh(ctx)
		}
	}
}
