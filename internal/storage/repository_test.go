package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"billed/internal/core"
	"billed/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "billed.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testBill(owner, date string) core.Bill {
	return core.Bill{
		Email:    owner,
		Type:     "Transports",
		Name:     "taxi",
		Date:     date,
		Amount:   core.Money{Cents: 2350},
		Pct:      20,
		FileName: "taxi.png",
		Status:   core.StatusPending,
	}
}

func TestSQLiteRepositoryBills(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateBill(ctx, testBill("a@a", "2004-04-04"))
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if _, err := repo.CreateBill(ctx, testBill("b@b", "2003-03-03")); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	mine, err := repo.ListBills(ctx, "a@a")
	if err != nil {
		t.Fatalf("ListBills: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != id || mine[0].Amount.Cents != 2350 {
		t.Fatalf("unexpected bills: %+v", mine)
	}

	all, _ := repo.ListBills(ctx, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 bills, got %d", len(all))
	}

	got, err := repo.GetBill(ctx, id)
	if err != nil || got.Date != "2004-04-04" || got.Status != core.StatusPending {
		t.Fatalf("GetBill = %+v, %v", got, err)
	}
	if _, err := repo.GetBill(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepositoryRejectsInvalidBill(t *testing.T) {
	repo := newTestRepo(t)
	b := testBill("a@a", "04/04/2004")
	if _, err := repo.CreateBill(context.Background(), b); !errors.Is(err, core.ErrMalformedDate) {
		t.Fatalf("expected ErrMalformedDate, got %v", err)
	}
}

func TestSQLiteRepositorySyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1, _ := repo.CreateBill(ctx, testBill("a@a", "2004-04-04"))
	id2, _ := repo.CreateBill(ctx, testBill("a@a", "2003-03-03"))

	pending, err := repo.GetPendingSyncBills(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("GetPendingSyncBills = %v, %v", pending, err)
	}
	if pending[0].Version != 1 {
		t.Fatalf("expected version 1, got %d", pending[0].Version)
	}

	if err := repo.MarkSynced(ctx, id1); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, id2); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	pending, _ = repo.GetPendingSyncBills(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending bills, got %v", pending)
	}

	n, err := repo.RequeueSyncErrors(ctx, 10)
	if err != nil || n != 1 {
		t.Fatalf("RequeueSyncErrors = %d, %v; want 1", n, err)
	}
	pending, _ = repo.GetPendingSyncBills(ctx, 10)
	if len(pending) != 1 || pending[0].ID != id2 || pending[0].Version != 2 {
		t.Fatalf("requeued bill = %+v, want %s at version 2", pending, id2)
	}
	if n, _ := repo.RequeueSyncErrors(ctx, 10); n != 0 {
		t.Fatalf("second requeue moved %d bills", n)
	}
}

func TestSQLiteRepositoryUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := core.User{Type: core.Employee, Email: "a@a"}
	if err := repo.CreateUser(ctx, core.Account{User: u, PasswordHash: "hash"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, err := repo.GetUserByEmail(ctx, "a@a")
	if err != nil || got.User != u || got.PasswordHash != "hash" {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := repo.GetUserByEmail(ctx, "nobody@x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
