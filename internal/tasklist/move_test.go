package tasklist

import (
	"strings"
	"testing"

	"taskmgr/internal/store"
)

func TestMove(t *testing.T) {
	tests := []struct {
		name string
		from []int
		to   int
		want string
	}{
		{"to front", []int{3}, 0, "d,a,b,c,e"},
		{"forward past neighbour", []int{0}, 2, "b,a,c,d,e"},
		{"to end", []int{1}, 5, "a,c,d,e,b"},
		{"onto itself", []int{2}, 2, "a,b,c,d,e"},
		{"several keep relative order", []int{4, 1}, 0, "b,e,a,c,d"},
		{"several into middle", []int{0, 4}, 3, "b,c,a,e,d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tasks []store.Task
			for _, title := range []string{"a", "b", "c", "d", "e"} {
				tasks = append(tasks, store.Task{ID: title, Title: title})
			}

			got := move(tasks, tt.from, tt.to)

			names := make([]string, len(got))
			for i, task := range got {
				names[i] = task.Title
			}
			if strings.Join(names, ",") != tt.want {
				t.Errorf("move(%v, %d) = %s, want %s", tt.from, tt.to, strings.Join(names, ","), tt.want)
			}
		})
	}
}
