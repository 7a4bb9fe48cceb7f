package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&UndoCmd{})
}

// UndoCmd reverts the most recent delete or complete.
type UndoCmd struct {
	views viewFlags
}

func (c *UndoCmd) Name() string      { return "undo" }
func (c *UndoCmd) Aliases() []string { return nil }
func (c *UndoCmd) Synopsis() string  { return "Undo the last delete or complete" }
func (c *UndoCmd) Usage() string     { return "taskmgr undo delete|complete" }
func (c *UndoCmd) NeedsStore() bool  { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) view() *viewFlags { return &c.views }

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *UndoCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: undo needs one of: delete, complete")
		return exitcode.UserError
	}

	slots := ctrl.UndoSlots()
	var (
		empty bool
		err   error
	)
	switch args[0] {
	case "delete", "rm":
		empty = slots.Deleted == nil
		err = ctrl.UndoDelete(ctx)
	case "complete", "done":
		empty = slots.Completed == nil
		err = ctrl.UndoComplete(ctx)
	default:
		fmt.Fprintf(errOut, "error: unknown undo target: %s\n", args[0])
		return exitcode.UserError
	}
	if err != nil {
		return report(errOut, err)
	}

	if empty {
		if !cfg.Quiet {
			fmt.Fprintln(out, "nothing to undo")
		}
		return exitcode.Success
	}
	return ok(cfg, out)
}
