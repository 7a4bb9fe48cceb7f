package memory_test

import (
	"testing"

	"taskmgr/internal/backend/memory"
	"taskmgr/internal/store"
	"taskmgr/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}
