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
	Register(&MvCmd{})
}

// MvCmd moves tasks within the visible list and saves the new manual order.
type MvCmd struct {
	views viewFlags
}

func (c *MvCmd) Name() string      { return "mv" }
func (c *MvCmd) Aliases() []string { return []string{"move"} }
func (c *MvCmd) Synopsis() string  { return "Reorder tasks" }
func (c *MvCmd) Usage() string     { return "taskmgr mv [--sort s] [--filter f] <n...> <to>" }
func (c *MvCmd) NeedsStore() bool  { return true }

func (c *MvCmd) RegisterFlags(fs *flag.FlagSet) { c.views.register(fs) }

func (c *MvCmd) view() *viewFlags { return &c.views }

func (c *MvCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

// apply moves the tasks numbered by all but the last arg so they sit before
// the task numbered by the last arg. A target one past the end appends.
func (c *MvCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: mv needs a task and a target position")
		return exitcode.UserError
	}
	nums, err := ParseTaskRefs(args)
	if err != nil {
		return report(errOut, err)
	}

	n := len(ctrl.Tasks())
	to := nums[len(nums)-1]
	if to > n+1 {
		fmt.Fprintf(errOut, "error: target out of range: %d\n", to)
		return exitcode.UserError
	}
	from := make([]int, 0, len(nums)-1)
	for _, num := range nums[:len(nums)-1] {
		if num > n {
			fmt.Fprintf(errOut, "error: task number out of range: %d\n", num)
			return exitcode.UserError
		}
		from = append(from, num-1)
	}

	if err := ctrl.Reorder(ctx, from, to-1); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
