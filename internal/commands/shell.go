package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&ShellCmd{})
}

// ShellCmd runs commands against one controller until EOF or quit. The
// visible list is reprinted after every change.
type ShellCmd struct {
	// In is read for commands. Nil means os.Stdin.
	In io.Reader

	// Registry resolves command names. Nil means DefaultRegistry.
	Registry *Registry

	views viewFlags
}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"sh"} }
func (c *ShellCmd) Synopsis() string  { return "Interactive session" }
func (c *ShellCmd) Usage() string     { return "taskmgr shell [--sort s] [--filter f]" }
func (c *ShellCmd) NeedsStore() bool  { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) { c.views.register(fs) }

func (c *ShellCmd) view() *viewFlags { return &c.views }

func (c *ShellCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *ShellCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	var dirty atomic.Bool
	unsubscribe := ctrl.Subscribe(func(tasklist.Snapshot) { dirty.Store(true) })
	defer unsubscribe()

	sh := &session{ctrl: ctrl, cfg: cfg, reg: reg, out: out, errOut: errOut, logger: log.FromContext(ctx)}
	sh.printList()

	scanner := bufio.NewScanner(in)
	for {
		if !cfg.Quiet {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		words, err := SplitLine(scanner.Text())
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		if words[0] == "quit" || words[0] == "exit" {
			break
		}

		dirty.Store(false)
		sh.listed = false
		code := sh.exec(ctx, words[0], words[1:])
		sh.logger.Debug("shell command", "cmd", words[0], "code", code)
		if dirty.Load() && code == exitcode.Success && !sh.listed {
			sh.printList()
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

// session is one shell run.
type session struct {
	ctrl   *tasklist.Controller
	cfg    *config.Config
	reg    *Registry
	out    io.Writer
	errOut io.Writer
	logger *log.Logger

	// listed is set when the last command printed the list itself.
	listed bool
}

func (s *session) exec(ctx context.Context, name string, args []string) int {
	switch name {
	case "help", "?":
		s.printHelp()
		return exitcode.Success
	case "sort":
		return s.setView(ctx, args, true)
	case "filter":
		return s.setView(ctx, args, false)
	}

	cmd, found := s.reg.Find(name)
	if !found {
		fmt.Fprintf(s.errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	if _, nested := cmd.(*ShellCmd); nested {
		fmt.Fprintln(s.errOut, "error: already in a shell")
		return exitcode.UserError
	}

	fs := NewFlagSet(cmd.Name())
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(s.errOut, "error: %s\n", DescribeFlagError(err))
		return exitcode.UserError
	}

	lc, isList := cmd.(listCommand)
	if !isList {
		return cmd.Run(ctx, s.cfg, nil, fs.Args(), s.out, s.errOut)
	}

	sort, filter, err := lc.view().parse()
	if err != nil {
		return report(s.errOut, err)
	}
	if lc.view().sort != "" && sort != s.ctrl.Sort() {
		if err := s.ctrl.SetSort(ctx, sort); err != nil {
			return report(s.errOut, err)
		}
	}
	if lc.view().filter != "" && filter != s.ctrl.Filter() {
		if err := s.ctrl.SetFilter(ctx, filter); err != nil {
			return report(s.errOut, err)
		}
	}

	_, s.listed = lc.(*ListCmd)
	code := lc.apply(ctx, s.cfg, s.ctrl, fs.Args(), s.out, s.errOut)
	if err := saveUndo(s.cfg, s.ctrl.UndoSlots()); err != nil {
		s.logger.Warn("could not save undo state", "path", s.cfg.UndoPath(), "err", err)
	}
	return code
}

func (s *session) setView(ctx context.Context, args []string, isSort bool) int {
	if len(args) != 1 {
		if isSort {
			fmt.Fprintf(s.out, "sort: %s\n", s.ctrl.Sort())
		} else {
			fmt.Fprintf(s.out, "filter: %s\n", s.ctrl.Filter())
		}
		return exitcode.Success
	}

	var err error
	if isSort {
		var v store.Sort
		if v, err = store.ParseSort(args[0]); err == nil {
			err = s.ctrl.SetSort(ctx, v)
		}
	} else {
		var v store.Filter
		if v, err = store.ParseFilter(args[0]); err == nil {
			err = s.ctrl.SetFilter(ctx, v)
		}
	}
	if err != nil {
		return report(s.errOut, err)
	}
	return exitcode.Success
}

func (s *session) printList() {
	if s.cfg.Quiet {
		return
	}
	snap := s.ctrl.Snapshot()
	output.FormatHeader(s.out, fmt.Sprintf("sort: %s  filter: %s  done: %d%%", snap.Sort, snap.Filter, output.Percent(snap.CompletionRatio)))
	if len(snap.Tasks) == 0 {
		fmt.Fprintln(s.out, "no tasks found")
		return
	}
	output.FormatTasks(s.out, snap.Tasks)
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	for _, cmd := range s.reg.All() {
		if _, nested := cmd.(*ShellCmd); nested {
			continue
		}
		fmt.Fprintf(s.out, "  %-10s %s\n", cmd.Name(), cmd.Synopsis())
	}
	fmt.Fprintf(s.out, "  %-10s %s\n", "sort", "Show or set the sort (manual, priority, due, alpha)")
	fmt.Fprintf(s.out, "  %-10s %s\n", "filter", "Show or set the filter (all, completed, pending)")
	fmt.Fprintf(s.out, "  %-10s %s\n", "quit", "Leave the shell")
}
