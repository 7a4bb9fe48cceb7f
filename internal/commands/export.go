package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/export"
	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd writes the visible list to stdout or a file.
type ExportCmd struct {
	views  viewFlags
	format string
	path   string
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Export tasks as json, csv or pdf" }
func (c *ExportCmd) Usage() string {
	return "taskmgr export [--sort s] [--filter f] [--format json|csv|pdf] [--out <path>]"
}
func (c *ExportCmd) NeedsStore() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	c.views.register(fs)
	fs.StringVar(&c.format, "format", "", "")
	fs.StringVar(&c.path, "out", "", "")
	fs.StringVar(&c.path, "o", "", "")
}

func (c *ExportCmd) view() *viewFlags { return &c.views }

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, st store.Store, args []string, out, errOut io.Writer) int {
	return runList(ctx, cfg, st, c, args, out, errOut)
}

func (c *ExportCmd) apply(ctx context.Context, cfg *config.Config, ctrl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	format, err := export.ParseFormat(c.format, c.path)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	snap := ctrl.Snapshot()
	stats := ctrl.Stats()
	r := export.Report{
		Sort:   snap.Sort,
		Filter: snap.Filter,
		Summary: export.Summary{
			Total:     stats.Total,
			Completed: stats.Completed,
			Pending:   stats.Pending,
			Ratio:     stats.Ratio,
		},
		Tasks: snap.Tasks,
	}

	if c.path == "" {
		if err := export.Write(out, format, r); err != nil {
			fmt.Fprintf(errOut, "error: export failed: %v\n", err)
			return exitcode.BackendError
		}
		return exitcode.Success
	}

	if err := writeFile(c.path, func(w io.Writer) error { return export.Write(w, format, r) }); err != nil {
		fmt.Fprintf(errOut, "error: export failed: %v\n", err)
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "wrote %d tasks to %s\n", len(r.Tasks), c.path)
	}
	return exitcode.Success
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
