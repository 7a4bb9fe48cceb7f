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
	Register(&StatsCmd{})
}

// StatsCmd prints completion counts for the visible list.
type StatsCmd struct {
	views viewFlags
}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Show completion summary" }
func (c *StatsCmd) Usage() string     { return "taskmgr stats [--filter f]" }
func (c *StatsCmd) NeedsStore() bool  { return true }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) { c.views.register(fs) }

func (c *StatsCmd) view() *viewFlags { return &c.views }

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *StatsCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	s := ctrl.Stats()
	output.FormatSummary(out, s.Total, s.Completed, s.Pending, s.Ratio)
	return exitcode.Success
}
