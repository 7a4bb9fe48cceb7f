package commands

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"taskmgr/internal/store"
	"taskmgr/internal/tasklist"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a 1-based task number as printed by list.
func ParseTaskRef(arg string) (int, error) {
	if !isAllDigits(arg) {
		return 0, fmt.Errorf("invalid task reference: %s", arg)
	}
	num, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid task reference: %s", arg)
	}
	if num < 1 {
		return 0, fmt.Errorf("task number out of range: %d", num)
	}
	return num, nil
}

// ParseTaskRefs parses every arg as a task number.
func ParseTaskRefs(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, ErrTaskRefRequired
	}
	nums := make([]int, len(args))
	for i, arg := range args {
		n, err := ParseTaskRef(arg)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// taskAt returns the visible task numbered num.
func taskAt(ctrl *tasklist.Controller, num int) (store.Task, error) {
	tasks := ctrl.Tasks()
	if num < 1 || num > len(tasks) {
		return store.Task{}, fmt.Errorf("task number out of range: %d", num)
	}
	return tasks[num-1], nil
}

// singleTask resolves the one task reference in args.
func singleTask(ctrl *tasklist.Controller, args []string) (store.Task, error) {
	if len(args) == 0 {
		return store.Task{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return store.Task{}, fmt.Errorf("too many arguments: %v", args[1:])
	}
	num, err := ParseTaskRef(args[0])
	if err != nil {
		return store.Task{}, err
	}
	return taskAt(ctrl, num)
}
