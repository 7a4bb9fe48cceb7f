package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/store"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskmgr help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskmgr                                     List all tasks
  taskmgr list [view flags]                   List tasks
  taskmgr show [view flags] <n>               Show task details
  taskmgr add [--desc d] [--priority p] [--due YYYY-MM-DD] <title...>
  taskmgr edit [view flags] [--title t] [--desc d] [--priority p] [--due YYYY-MM-DD|none] <n>
  taskmgr done [view flags] <n>               Mark task completed
  taskmgr undone [view flags] <n>             Mark task pending
  taskmgr rm [view flags] <n>                 Delete task
  taskmgr undo delete|complete                Undo the last delete or complete
  taskmgr mv [view flags] <n...> <to>         Move tasks before position <to>
  taskmgr clear [--force]                     Delete all tasks
  taskmgr stats [view flags]                  Show completion summary
  taskmgr export [view flags] [--format json|csv|pdf] [--out <path>]
  taskmgr shell                               Interactive session
  taskmgr login                               Authenticate with Google Tasks
  taskmgr logout                              Remove stored Google token
  taskmgr help
  taskmgr version

<n> is the task's position in the list shown with the same view flags.

View flags:
  --sort manual|priority|due|alpha
  --filter all|completed|pending

Common flags:
  --config <dir>     Override config directory
  --backend <name>   file, memory, postgres, mysql or google
  --quiet            Suppress informational output
  --debug            Print debug logs to stderr
`
