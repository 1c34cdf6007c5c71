package adapters

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/services"
	"billed/internal/storage"
)

func TestSQLiteAdapterRoundTrip(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "billed.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	svc := services.NewBillService(repo, nil, log.New(log.Config{Output: io.Discard}))
	defer svc.Close()

	a := NewSQLiteAdapter(repo, svc)
	ctx := context.Background()

	id, err := a.CreateBill(ctx, core.Bill{
		Email: "a@a", Type: "Transports", Name: "train", Date: "2024-05-02",
		Amount: core.Money{Cents: 4250}, Pct: 20, FileName: "ticket.png", Status: core.StatusPending,
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	bills, err := a.ListBills(ctx, "a@a")
	if err != nil || len(bills) != 1 || bills[0].ID != id {
		t.Fatalf("ListBills = %+v, %v", bills, err)
	}
	got, err := a.GetBill(ctx, id)
	if err != nil || got.Amount.Cents != 4250 {
		t.Fatalf("GetBill = %+v, %v", got, err)
	}
	if err := a.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	pending, err := repo.GetPendingSyncBills(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("new bill should be pending sync, got %v, %v", pending, err)
	}
}
