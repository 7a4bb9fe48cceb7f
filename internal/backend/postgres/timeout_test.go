package postgres

import (
	"context"
	"testing"
	"time"
)

func TestCallCtxBoundsEachCall(t *testing.T) {
	s := &Store{timeout: 2 * time.Second}

	ctx, cancel := s.callCtx(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on the call context")
	}
	if d := time.Until(deadline); d <= 0 || d > 2*time.Second {
		t.Errorf("expected deadline within 2s, got %v", d)
	}

	cancel()
	if ctx.Err() == nil {
		t.Error("expected cancel to end the call context")
	}
}

func TestCallCtxWithoutTimeout(t *testing.T) {
	s := &Store{}

	ctx, cancel := s.callCtx(context.Background())
	defer cancel()

	if _, ok := ctx.Deadline(); ok {
		t.Error("expected no deadline when timeout is zero")
	}
}

func TestCallCtxKeepsEarlierParentDeadline(t *testing.T) {
	s := &Store{timeout: time.Hour}

	parent, cancelParent := context.WithTimeout(context.Background(), time.Second)
	defer cancelParent()
	want, _ := parent.Deadline()

	ctx, cancel := s.callCtx(parent)
	defer cancel()

	if got, _ := ctx.Deadline(); !got.Equal(want) {
		t.Errorf("expected parent deadline %v, got %v", want, got)
	}
}
