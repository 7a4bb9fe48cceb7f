package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd overwrites fields of an existing task. Only given flags change.
type EditCmd struct {
	views    viewFlags
	title    optString
	desc     optString
	priority optString
	due      optString
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskmgr edit [--title t] [--desc d|--desc ''] [--priority p] [--due YYYY-MM-DD|none] <n>"
}
func (c *EditCmd) NeedsStore() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.views.register(fs)
	c.title, c.desc, c.priority, c.due = optString{}, optString{}, optString{}, optString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.desc, "desc", "")
	fs.Var(&c.desc, "d", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
	fs.Var(&c.due, "due", "")
}

func (c *EditCmd) view() *viewFlags { return &c.views }

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *EditCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	task, err := singleTask(ctrl, args)
	if err != nil {
		return report(errOut, err)
	}
	if !c.title.set && !c.desc.set && !c.priority.set && !c.due.set {
		fmt.Fprintln(errOut, "error: nothing to edit")
		return exitcode.UserError
	}

	if c.title.set {
		task.Title = c.title.value
	}
	if c.desc.set {
		// An empty --desc clears the description.
		task.Description = nil
		if strings.TrimSpace(c.desc.value) != "" {
			task.Description = store.StringPtr(c.desc.value)
		}
	}
	if c.priority.set {
		if task.Priority, err = store.ParsePriority(c.priority.value); err != nil {
			return report(errOut, err)
		}
	}
	if c.due.set {
		if task.DueDate, err = parseDue(c.due.value); err != nil {
			return report(errOut, err)
		}
	}

	if err := ctrl.Update(ctx, task); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
