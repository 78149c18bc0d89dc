// Package devstore is an in-memory stand-in for the spreadsheet web app. It
// speaks the same GET/POST contract so the client can run without network
// access to the real store.
package devstore

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/Tiliavir/fichajes/internal/model"
)

// Server holds the snapshot served to clients.
type Server struct {
	mu          sync.RWMutex
	entries     map[model.Key]model.DayEntry
	employees   []model.Employee
	unavailable atomic.Bool
}

// New returns a server seeded with the default roster and no entries.
func New() *Server {
	return &Server{
		entries:   make(map[model.Key]model.DayEntry),
		employees: model.DefaultEmployees(),
	}
}

// Seed replaces the stored snapshot.
func (s *Server) Seed(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[model.Key]model.DayEntry, len(snap.Entries))
	for k, v := range snap.Entries {
		s.entries[k] = v
	}
	if snap.Employees != nil {
		s.employees = append([]model.Employee(nil), snap.Employees...)
	}
}

// Snapshot returns a copy of the stored state.
func (s *Server) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make(map[model.Key]model.DayEntry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	return model.Snapshot{Entries: entries, Employees: append([]model.Employee(nil), s.employees...)}
}

// SetUnavailable makes every request fail with 503 until cleared.
func (s *Server) SetUnavailable(v bool) {
	s.unavailable.Store(v)
}

// Handler returns the router. A nil logger disables request logging.
func (s *Server) Handler(logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Session-ID"},
		MaxAge:         300,
	}))
	if logger != nil {
		r.Use(httplog.RequestLogger(logger, &httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.SchemaECS,
		}))
	}
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.availability)

	for _, p := range []string{"/", "/exec"} {
		r.Get(p, s.getSnapshot)
		r.Post(p, s.post)
	}
	return r
}

func (s *Server) availability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.unavailable.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "unavailable"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := struct {
		Entries   any              `json:"entries"`
		Employees []model.Employee `json:"employees"`
	}{Employees: s.employees}
	if len(s.entries) == 0 {
		// A blank sheet comes back as an empty array, not an object.
		resp.Entries = []any{}
	} else {
		resp.Entries = s.entries
	}
	writeJSON(w, http.StatusOK, resp)
}

type postRequest struct {
	Action string         `json:"action"`
	Key    model.Key      `json:"key"`
	Date   string         `json:"date"`
	EmpID  int            `json:"empId"`
	Val    model.DayEntry `json:"val"`
	ID     int            `json:"id"`
	Name   string         `json:"name"`
}

func (s *Server) post(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	var req postRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid JSON body"})
		return
	}

	switch req.Action {
	case "save_entry":
		key := req.Key
		if key == "" {
			key = model.NewKey(req.Date, req.EmpID)
		}
		if _, _, err := key.Split(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": err.Error()})
			return
		}
		s.mu.Lock()
		s.entries[key] = req.Val
		s.mu.Unlock()
	case "save_employee":
		s.saveEmployee(req.ID, req.Name)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "unknown action"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) saveEmployee(id int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	emps := append([]model.Employee(nil), s.employees...)
	for i := range emps {
		if emps[i].ID == id {
			emps[i].Name = name
			s.employees = emps
			return
		}
	}
	emps = append(emps, model.Employee{ID: id, Name: name})
	sort.Slice(emps, func(i, j int) bool { return emps[i].ID < emps[j].ID })
	s.employees = emps
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
