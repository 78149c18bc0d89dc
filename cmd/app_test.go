package cmd

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/Tiliavir/fichajes/internal/cache"
)

type closeRecorder struct {
	cache.Store
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestExitClosesCache(t *testing.T) {
	code := -1
	osExit = func(c int) { code = c }
	t.Cleanup(func() { osExit = os.Exit })

	rec := &closeRecorder{}
	a := &app{log: slog.New(slog.NewTextHandler(io.Discard, nil)), cache: rec}
	a.exit(2)

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if rec.closed != 1 {
		t.Errorf("cache closed %d times, want 1", rec.closed)
	}
}
