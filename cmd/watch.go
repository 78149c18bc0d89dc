package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/fichajes/internal/calendar"
	"github.com/Tiliavir/fichajes/internal/export"
	"github.com/Tiliavir/fichajes/internal/model"
	"github.com/Tiliavir/fichajes/internal/syncer"
)

var watchEmployee int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the timesheet in sync and edit it from a prompt",
	Long: `watch refreshes the timesheet on the configured poll interval and reads
edit commands from stdin. Type "help" for the command list. Polling pauses
while a command is being applied.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVarP(&watchEmployee, "employee", "e", 1, "Employee that set applies to")
}

var statusLabels = map[syncer.Status]string{
	syncer.StatusIdle:    "idle",
	syncer.StatusLoading: "Cargando...",
	syncer.StatusSaving:  "Guardando...",
	syncer.StatusSuccess: "Sincronizado",
	syncer.StatusError:   "Error Conexión",
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer a.Close()
	if !a.session.Online() {
		fmt.Fprintln(os.Stderr, "watch needs a remote endpoint; set remote.endpoint or FICHAJES_ENDPOINT")
		a.exit(1)
	}

	a.session.Subscribe(func(s syncer.Status) {
		if s == syncer.StatusLoading {
			return
		}
		fmt.Fprintf(os.Stderr, "[%s] %s\n", time.Now().Format("15:04:05"), statusLabels[s])
	})

	sh := &shell{session: a.session, app: a, out: os.Stdout, employee: watchEmployee}
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.session.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					// stdin closed; keep polling until interrupted.
					lines = nil
					continue
				}
				if sh.exec(gctx, line) {
					return nil
				}
			}
		}
	})
	return g.Wait()
}

// shell applies one line-based command at a time to a session.
type shell struct {
	session  *syncer.Session
	app      *app
	out      io.Writer
	employee int
}

const shellHelp = `commands:
  set <date> <field> <value>   edit the current employee's entry
  emp <id>                     switch the current employee
  show <date>                  print an entry
  rename <id> <name>           rename an employee
  report [YYYY-MM]             monthly report
  refresh                      fetch now
  status                       sync status and pending edits
  quit`

// exec runs line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "emp":
		s.switchEmployee(args)
	case "set":
		s.set(ctx, args)
	case "show":
		s.show(args)
	case "rename":
		s.rename(ctx, args)
	case "report":
		s.report(args)
	case "refresh":
		if _, err := s.session.Refresh(ctx); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	case "status":
		s.status()
	default:
		fmt.Fprintf(s.out, "unknown command %q, type help\n", cmd)
	}
	return false
}

func (s *shell) switchEmployee(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: emp <id>")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "invalid employee id %q\n", args[0])
		return
	}
	e, ok := s.session.Store.Employee(id)
	if !ok {
		fmt.Fprintf(s.out, "unknown employee %d\n", id)
		return
	}
	s.employee = id
	fmt.Fprintf(s.out, "employee %d  %s\n", e.ID, e.Name)
}

func (s *shell) set(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "usage: set <date> <field> <value>")
		return
	}
	if _, err := calendar.ParseDate(args[0]); err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	s.session.BeginEdit()
	defer s.session.EndEdit()

	edit, err := s.session.Edit(ctx, args[0], s.employee, args[1], strings.Join(args[2:], " "))
	if edit.Seq == 0 {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, describeEntry(edit.Key, edit.Value))
	if err != nil {
		fmt.Fprintf(s.out, "saved locally, not synchronised: %v\n", err)
	}
}

func (s *shell) show(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: show <date>")
		return
	}
	key := model.NewKey(args[0], s.employee)
	e, ok := s.session.Store.Entry(key)
	if !ok {
		fmt.Fprintf(s.out, "%s  (empty)\n", key)
		return
	}
	fmt.Fprintln(s.out, describeEntry(key, e))
}

func (s *shell) rename(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "usage: rename <id> <name>")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "invalid employee id %q\n", args[0])
		return
	}

	s.session.BeginEdit()
	defer s.session.EndEdit()

	if err := s.session.RenameEmployee(ctx, id, strings.Join(args[1:], " ")); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "renamed %d\n", id)
}

func (s *shell) report(args []string) {
	m := ""
	if len(args) > 0 {
		m = args[0]
	}
	month, err := resolveMonth(m)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	st := s.session.Store
	r := export.Report{Month: month, Rows: s.app.aggregator().Report(month, st.Employees(), st.Entry)}
	fmt.Fprintln(s.out, export.Table(r))
}

func (s *shell) status() {
	st := s.session.Status()
	fmt.Fprintf(s.out, "status: %s\n", statusLabels[st])
	if t := s.session.LastSuccess(); !t.IsZero() {
		fmt.Fprintf(s.out, "last sync: %s\n", t.Format("15:04:05"))
	}
	if err := s.session.LastError(); err != nil && st == syncer.StatusError {
		fmt.Fprintf(s.out, "last error: %v\n", err)
	}
	for _, p := range s.session.Store.Pending() {
		state := "waiting for echo"
		if p.Failed {
			state = "push failed"
		}
		fmt.Fprintf(s.out, "pending: %s  %s  since %s\n", p.Key, state, p.Since.Format("15:04:05"))
	}
}
