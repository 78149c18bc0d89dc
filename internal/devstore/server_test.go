package devstore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/fichajes/internal/devstore"
	"github.com/Tiliavir/fichajes/internal/model"
	"github.com/Tiliavir/fichajes/internal/remote"
)

func TestBlankSheetServesEmptyArray(t *testing.T) {
	srv := httptest.NewServer(devstore.New().Handler(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/exec?t=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"entries":[]`)
}

func TestClientRoundTrip(t *testing.T) {
	ds := devstore.New()
	srv := httptest.NewServer(ds.Handler(nil))
	defer srv.Close()

	ctx := context.Background()
	c, err := remote.New(ctx, remote.Options{Endpoint: srv.URL + "/exec"})
	require.NoError(t, err)

	val := model.DayEntry{Type: model.Vacaciones}
	require.NoError(t, c.SaveEntry(ctx, "2026-08-03-4", "2026-08-03", 4, val))
	require.NoError(t, c.SaveEmployee(ctx, 4, "Pilar"))
	require.NoError(t, c.SaveEmployee(ctx, 9, "Nuevo"))

	snap, err := c.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, val, snap.Entries["2026-08-03-4"])
	require.Len(t, snap.Employees, 7)
	assert.Equal(t, model.Employee{ID: 4, Name: "Pilar"}, snap.Employees[3])
	assert.Equal(t, model.Employee{ID: 9, Name: "Nuevo"}, snap.Employees[6])
}

func TestPostRejectsBadRequests(t *testing.T) {
	srv := httptest.NewServer(devstore.New().Handler(nil))
	defer srv.Close()

	for _, body := range []string{`not json`, `{"action":"drop_table"}`, `{"action":"save_entry","key":"bad"}`} {
		resp, err := http.Post(srv.URL, "text/plain", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestUnavailable(t *testing.T) {
	ds := devstore.New()
	ds.SetUnavailable(true)
	srv := httptest.NewServer(ds.Handler(nil))
	defer srv.Close()

	c, err := remote.New(context.Background(), remote.Options{Endpoint: srv.URL})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, remote.ErrNetwork)
}
