package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/fichajes/internal/store"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "List employees",
	Args:  cobra.NoArgs,
	RunE:  runEmployees,
}

var employeesRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename an employee and push the new name",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runEmployeesRename,
}

func init() {
	employeesCmd.AddCommand(employeesRenameCmd)
}

func runEmployees(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer a.Close()
	refreshQuietly(ctx, a)

	for _, e := range a.session.Store.Employees() {
		fmt.Printf("%3d  %s\n", e.ID, e.Name)
	}
	return nil
}

func runEmployeesRename(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid employee id %q\n", args[0])
		os.Exit(1)
	}
	name := strings.TrimSpace(strings.Join(args[1:], " "))

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer a.Close()

	err = a.session.RenameEmployee(ctx, id, name)
	switch {
	case errors.Is(err, store.ErrEmptyName), errors.Is(err, store.ErrUnknownEmployee):
		fmt.Fprintln(os.Stderr, err)
		a.exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Renamed locally but not synchronised: %v\n", err)
		a.exit(2)
	}
	fmt.Printf("%d  %s\n", id, name)
	return nil
}
