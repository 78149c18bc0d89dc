package remote_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/fichajes/internal/model"
	"github.com/Tiliavir/fichajes/internal/remote"
)

func newClient(t *testing.T, srv *httptest.Server, opts remote.Options) *remote.Client {
	t.Helper()
	opts.Endpoint = srv.URL + "/exec"
	c, err := remote.New(context.Background(), opts)
	require.NoError(t, err)
	return c
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := remote.New(context.Background(), remote.Options{})
	assert.ErrorIs(t, err, remote.ErrNoEndpoint)

	_, err = remote.New(context.Background(), remote.Options{Endpoint: "not a url"})
	assert.Error(t, err)
}

func TestFetchDecodesSnapshot(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("t")
		assert.Equal(t, "sess-1", r.Header.Get(remote.SessionHeader))
		io.WriteString(w, `{
			"entries": {
				"2026-03-03-1": {"type":"Presencial","start":"09:00","end":"17:00","break":"45"},
				"2026-03-04-1": "garbage"
			},
			"employees": [{"id":"1","name":"Ana"},{"id":2,"name":"Luis"}]
		}`)
	}))
	defer srv.Close()

	snap, err := newClient(t, srv, remote.Options{SessionID: "sess-1"}).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, query, "requests carry a cache buster")

	require.Len(t, snap.Entries, 1)
	e := snap.Entries["2026-03-03-1"]
	require.NotNil(t, e.Break)
	assert.Equal(t, model.Minutes(45), *e.Break)
	assert.Equal(t, []model.Employee{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Luis"}}, snap.Employees)
}

func TestFetchToleratesEmptySheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"entries": []}`)
	}))
	defer srv.Close()

	snap, err := newClient(t, srv, remote.Options{}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.Nil(t, snap.Employees)
}

func TestFetchFailuresWrapErrNetwork(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusInternalServerError) }},
		{"not json", func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "<html>login</html>") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := newClient(t, srv, remote.Options{}).Fetch(context.Background())
			assert.ErrorIs(t, err, remote.ErrNetwork)
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newClient(t, srv, remote.Options{Timeout: time.Second})
	srv.Close()

	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, remote.ErrNetwork)
}

func TestSaveEntryPostsFullValue(t *testing.T) {
	var got map[string]any
	var contentType, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		contentType = r.Header.Get("Content-Type")
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	b := model.Minutes(30)
	val := model.DayEntry{Type: model.Teletrabajo, Start: "08:00", End: "15:00", Break: &b}
	c := newClient(t, srv, remote.Options{Token: "secret"})
	require.NoError(t, c.SaveEntry(context.Background(), model.NewKey("2026-03-03", 2), "2026-03-03", 2, val))

	assert.Contains(t, contentType, "text/plain")
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "save_entry", got["action"])
	assert.Equal(t, "2026-03-03-2", got["key"])
	assert.Equal(t, "2026-03-03", got["date"])
	assert.Equal(t, float64(2), got["empId"])
	assert.Equal(t, map[string]any{"type": "Teletrabajo", "start": "08:00", "end": "15:00", "break": float64(30)}, got["val"])
}

func TestSaveEmployee(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	require.NoError(t, newClient(t, srv, remote.Options{}).SaveEmployee(context.Background(), 3, "Marta"))
	assert.Equal(t, map[string]any{"action": "save_employee", "id": float64(3), "name": "Marta"}, got)
}
