package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/fichajes/internal/syncer"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch the remote timesheet once and update the local cache",
	Args:  cobra.NoArgs,
	RunE:  runPull,
}

func runPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer a.Close()

	res, err := a.session.Refresh(ctx)
	switch {
	case errors.Is(err, syncer.ErrOffline):
		fmt.Fprintln(os.Stderr, "No remote endpoint configured; set remote.endpoint in ~/.fichajes/config.json or FICHAJES_ENDPOINT.")
		fmt.Printf("Cached: %d entries.\n", a.session.Store.Len())
		a.exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Status: %s\n%v\n", a.session.Status(), err)
		fmt.Printf("Cached: %d entries.\n", a.session.Store.Len())
		a.exit(2)
	}

	fmt.Printf("Status: %s at %s\n", a.session.Status(), a.session.LastSuccess().Format("15:04:05"))
	fmt.Printf("Entries: %d (%d updated", a.session.Store.Len(), res.Adopted+res.Expired)
	if n := res.Kept + res.Stale; n > 0 {
		fmt.Printf(", %d local edits pending", n)
	}
	fmt.Println(")")
	if pending := a.session.Store.Pending(); len(pending) > 0 {
		for _, p := range pending {
			state := "waiting for echo"
			if p.Failed {
				state = "push failed"
			}
			fmt.Printf("  %s  %s\n", p.Key, state)
		}
	}
	return nil
}
