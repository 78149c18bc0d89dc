package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/fichajes/internal/devstore"
)

var devstoreAddr string

var devstoreCmd = &cobra.Command{
	Use:   "devstore",
	Short: "Run an in-memory stand-in for the spreadsheet web app",
	Long: `devstore serves the same GET/POST contract as the spreadsheet web app
from memory, for local development. Point the client at it with
--endpoint http://localhost:8787/exec.`,
	Args: cobra.NoArgs,
	RunE: runDevstore,
}

func init() {
	devstoreCmd.Flags().StringVar(&devstoreAddr, "addr", "", "Listen address (default from config, else :8787)")
}

func runDevstore(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	addr := devstoreAddr
	if addr == "" {
		addr = cfg.DevStore.Addr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           devstore.New().Handler(log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx := cmd.Context()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("devstore listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}
