package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

// viewFlags are the --sort and --filter flags shared by list commands.
// Empty values mean manual order and all tasks.
type viewFlags struct {
	sort   string
	filter string
}

func (v *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&v.sort, "sort", "", "")
	fs.StringVar(&v.filter, "filter", "", "")
}

func (v *viewFlags) parse() (store.Sort, store.Filter, error) {
	s, err := store.ParseSort(v.sort)
	if err != nil {
		return "", "", err
	}
	f, err := store.ParseFilter(v.filter)
	if err != nil {
		return "", "", err
	}
	return s, f, nil
}

// runList opens a controller over st showing the list selected by cmd's view
// flags, runs cmd.apply and saves the undo slots for the next invocation.
func runList(ctx context.Context, cfg *config.Config, st store.Store, cmd listCommand, args []string, out, errOut io.Writer) int {
	sort, filter, err := cmd.view().parse()
	if err != nil {
		return report(errOut, err)
	}

	logger := log.FromContext(ctx)
	slots, err := loadUndo(cfg)
	if err != nil {
		logger.Warn("ignoring unreadable undo state", "path", cfg.UndoPath(), "err", err)
	}

	ctrl := tasklist.New(st,
		tasklist.WithLogger(logger),
		tasklist.WithSort(sort),
		tasklist.WithFilter(filter),
		tasklist.WithUndoSlots(slots),
	)
	if err := ctrl.Refresh(ctx); err != nil {
		return report(errOut, err)
	}

	code := cmd.apply(ctx, cfg, ctrl, args, out, errOut)

	if err := saveUndo(cfg, ctrl.UndoSlots()); err != nil {
		logger.Warn("could not save undo state", "path", cfg.UndoPath(), "err", err)
	}
	return code
}

// undoState is the on-disk form of tasklist.UndoSlots. Backend names the
// store the slots were taken from; slots from another backend are ignored.
type undoState struct {
	Backend   string      `json:"backend"`
	Deleted   *store.Task `json:"deleted,omitempty"`
	Completed *store.Task `json:"completed,omitempty"`
}

func undoBackend(cfg *config.Config) string {
	if cfg.Backend == "" {
		return config.BackendFile
	}
	return cfg.Backend
}

func readUndo(path string) (undoState, error) {
	var st undoState
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return undoState{}, err
	}
	return st, nil
}

func loadUndo(cfg *config.Config) (tasklist.UndoSlots, error) {
	st, err := readUndo(cfg.UndoPath())
	if err != nil {
		return tasklist.UndoSlots{}, err
	}
	if st.Backend != undoBackend(cfg) {
		return tasklist.UndoSlots{}, nil
	}
	return tasklist.UndoSlots{Deleted: st.Deleted, Completed: st.Completed}, nil
}

// saveUndo writes slots for cfg's backend. Empty slots remove the file
// unless it holds another backend's slots.
func saveUndo(cfg *config.Config, slots tasklist.UndoSlots) error {
	if slots.Deleted == nil && slots.Completed == nil {
		if st, err := readUndo(cfg.UndoPath()); err == nil && st.Backend != "" && st.Backend != undoBackend(cfg) {
			return nil
		}
		err := os.Remove(cfg.UndoPath())
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := cfg.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(undoState{
		Backend:   undoBackend(cfg),
		Deleted:   slots.Deleted,
		Completed: slots.Completed,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.UndoPath(), data, 0600)
}

// report prints err and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	var ve *store.ValidationError
	switch {
	case errors.As(err, &ve) && !store.IsPersistence(err):
		fmt.Fprintf(errOut, "error: %v\n", ve.Err)
		return exitcode.UserError
	case store.IsPersistence(err):
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
}

// ok prints "ok" unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
