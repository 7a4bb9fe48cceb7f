package commands

import (
	"context"
	"flag"
	"io"

	"taskmgr/internal/config"
	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct {
	views viewFlags
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "taskmgr done [--sort s] [--filter f] <n>" }
func (c *DoneCmd) NeedsStore() bool  { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) { c.views.register(fs) }

func (c *DoneCmd) view() *viewFlags { return &c.views }

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *DoneCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	return setCompletion(ctx, cfg, ctrl, args, true, out, errOut)
}

// UndoneCmd reopens a completed task.
type UndoneCmd struct {
	views viewFlags
}

func (c *UndoneCmd) Name() string      { return "undone" }
func (c *UndoneCmd) Aliases() []string { return []string{"reopen"} }
func (c *UndoneCmd) Synopsis() string  { return "Mark a task pending" }
func (c *UndoneCmd) Usage() string     { return "taskmgr undone [--sort s] [--filter f] <n>" }
func (c *UndoneCmd) NeedsStore() bool  { return true }

func (c *UndoneCmd) RegisterFlags(fs *flag.FlagSet) { c.views.register(fs) }

func (c *UndoneCmd) view() *viewFlags { return &c.views }

func (c *UndoneCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *UndoneCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	return setCompletion(ctx, cfg, ctrl, args, false, out, errOut)
}

func setCompletion(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, done bool, out, errOut io.Writer) int {
	task, err := singleTask(ctrl, args)
	if err != nil {
		return report(errOut, err)
	}
	if err := ctrl.SetCompletion(ctx, task, done); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
