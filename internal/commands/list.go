package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&ListCmd{})
	Register(&ShowCmd{})
}

// ListCmd implements the list command.
// Handles both `taskmgr` (no args) and `taskmgr list`.
type ListCmd struct {
	views viewFlags
}

// SetView sets the sort and filter (for testing).
func (c *ListCmd) SetView(sort, filter string) {
	c.views = viewFlags{sort: sort, filter: filter}
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskmgr list [--sort manual|priority|due|alpha] [--filter all|completed|pending]"
}
func (c *ListCmd) NeedsStore() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) { c.views.register(fs) }

func (c *ListCmd) view() *viewFlags { return &c.views }

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *ListCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks := ctrl.Tasks()
	if len(tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}
	output.FormatTasks(out, tasks)
	return exitcode.Success
}

// ShowCmd prints the details of one task.
type ShowCmd struct {
	views viewFlags
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show task details" }
func (c *ShowCmd) Usage() string     { return "taskmgr show [--sort s] [--filter f] <n>" }
func (c *ShowCmd) NeedsStore() bool  { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) { c.views.register(fs) }

func (c *ShowCmd) view() *viewFlags { return &c.views }

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *ShowCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	task, err := singleTask(ctrl, args)
	if err != nil {
		return report(errOut, err)
	}
	output.FormatDetails(out, task)
	return exitcode.Success
}
