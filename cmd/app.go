package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/fichajes/internal/cache"
	"github.com/Tiliavir/fichajes/internal/calendar"
	"github.com/Tiliavir/fichajes/internal/config"
	"github.com/Tiliavir/fichajes/internal/logging"
	"github.com/Tiliavir/fichajes/internal/remote"
	"github.com/Tiliavir/fichajes/internal/stats"
	"github.com/Tiliavir/fichajes/internal/store"
	"github.com/Tiliavir/fichajes/internal/syncer"
)

// app is what a command needs to run: config, logger and an open session.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	session *syncer.Session
	cache   cache.Store
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("closing cache", "error", err)
		}
	}
}

// osExit is replaced in tests.
var osExit = os.Exit

// exit closes the app before terminating, since os.Exit skips deferred calls.
func (a *app) exit(code int) {
	a.Close()
	osExit(code)
}

// aggregator returns the stats aggregator configured for this run.
func (a *app) aggregator() *stats.Aggregator {
	agg := stats.New(&calendar.Holidays{})
	agg.CountEmptyWorkdays = a.cfg.Stats.CountEmptyWorkdays
	return agg
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagEndpoint != "" {
		cfg.Remote.Endpoint = flagEndpoint
	}
	if flagOffline {
		cfg.Remote.Endpoint = ""
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// openApp loads the config, opens the cache and builds the session. The
// cached timesheet is loaded so commands have data even when offline.
func openApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	c, err := cache.Open(cache.Options{Backend: cfg.Cache.Backend, Dir: cfg.Cache.Dir})
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	st := store.New(c, policyFrom(cfg.Dirty), log)
	if _, err := st.LoadCache(); err != nil {
		log.Warn("cache partly unreadable", "error", err)
	}

	opts := syncer.Options{
		ID:           uuid.NewString(),
		PollInterval: cfg.Remote.PollInterval.Std(),
		Logger:       log,
	}
	var rc syncer.Remote
	if cfg.Remote.Endpoint != "" {
		client, err := remote.New(ctx, remote.Options{
			Endpoint:  cfg.Remote.Endpoint,
			Token:     cfg.Remote.Token,
			Timeout:   cfg.Remote.Timeout.Std(),
			SessionID: opts.ID,
			Logger:    log,
		})
		if err != nil {
			c.Close()
			return nil, err
		}
		rc = client
	}

	return &app{
		cfg:     cfg,
		log:     log,
		session: syncer.NewSession(st, rc, opts),
		cache:   c,
	}, nil
}

func policyFrom(d config.DirtyConfig) store.Policy {
	p := store.Policy{MaxMismatches: d.MaxMismatches, TTL: d.TTL.Std()}
	if p.MaxMismatches < 0 {
		p.MaxMismatches = 0
	}
	if p.TTL < 0 {
		p.TTL = 0
	}
	return p
}

// resolveMonth parses a YYYY-MM flag, defaulting to the current month.
func resolveMonth(s string) (calendar.Month, error) {
	if s == "" {
		return calendar.MonthOf(time.Now()), nil
	}
	return calendar.ParseMonth(s)
}

// refreshQuietly pulls the latest snapshot, reporting failures on stderr
// without stopping the command.
func refreshQuietly(ctx context.Context, a *app) {
	if !a.session.Online() {
		return
	}
	if _, err := a.session.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not reach remote store, showing cached data: %v\n", err)
	}
}
