package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	views    viewFlags
	desc     optString
	priority string
	due      string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskmgr add [--desc <text>] [--priority low|medium|high] [--due YYYY-MM-DD] <title...>"
}
func (c *AddCmd) NeedsStore() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	c.desc = optString{}
	fs.Var(&c.desc, "desc", "")
	fs.Var(&c.desc, "d", "")
	fs.StringVar(&c.priority, "priority", "medium", "")
	fs.StringVar(&c.priority, "p", "medium", "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) view() *viewFlags { return &c.views }

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *AddCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	priority, err := store.ParsePriority(c.priority)
	if err != nil {
		return report(errOut, err)
	}
	due, err := parseDue(c.due)
	if err != nil {
		return report(errOut, err)
	}

	if _, err := ctrl.Create(ctx, tasklist.Draft{
		Title:       title,
		Description: c.desc.ptr(),
		Priority:    priority,
		DueDate:     due,
	}); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}

// optString is a string flag that remembers whether it was given.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

// ptr returns nil when the flag was not given.
func (o *optString) ptr() *string {
	if !o.set {
		return nil
	}
	return store.StringPtr(o.value)
}

// parseDue parses a YYYY-MM-DD date in local time. Empty and "none" mean no
// due date.
func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	t, err := time.ParseInLocation(output.DateLayout, s, time.Local)
	if err != nil {
		return nil, &store.ValidationError{Field: "due", Err: fmt.Errorf("invalid due date: %s (want YYYY-MM-DD)", s)}
	}
	return &t, nil
}
