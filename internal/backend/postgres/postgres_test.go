package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"taskmgr/internal/backend/postgres"
	"taskmgr/internal/store"
	"taskmgr/internal/store/storetest"
)

// Set TASKMGR_TEST_POSTGRES_DSN to a disposable database to run these tests.
// The tasks table is emptied before every case.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TASKMGR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TASKMGR_TEST_POSTGRES_DSN not set")
	}
	return dsn
}

func TestStoreContract(t *testing.T) {
	dsn := testDSN(t)
	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := postgres.Open(ctx, dsn, 5*time.Second, nil)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if err := s.DeleteAll(ctx); err != nil {
			t.Fatalf("DeleteAll: %v", err)
		}
		return s
	})
}

func TestOpenBadDSN(t *testing.T) {
	testDSN(t)
	_, err := postgres.Open(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", time.Second, nil)
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !store.IsPersistence(err) {
		t.Errorf("expected persistence error, got %T: %v", err, err)
	}
}
