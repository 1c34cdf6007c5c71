// Package adapters exposes the SQLite repository and bill service through
// the store ports the containers consume.
package adapters

import (
	"context"

	"billed/internal/core"
	"billed/internal/services"
	"billed/internal/storage"
	"billed/internal/store"
)

var (
	_ store.BillLister = (*SQLiteAdapter)(nil)
	_ store.BillGetter = (*SQLiteAdapter)(nil)
	_ store.BillWriter = (*SQLiteAdapter)(nil)
)

// SQLiteAdapter reads straight from SQLite and writes through BillService so
// every new bill is also queued for sync.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.BillService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.BillService) *SQLiteAdapter {
	return &SQLiteAdapter{storage: storage, service: service}
}

func (a *SQLiteAdapter) ListBills(ctx context.Context, owner string) ([]core.Bill, error) {
	return a.storage.ListBills(ctx, owner)
}

func (a *SQLiteAdapter) GetBill(ctx context.Context, id string) (core.Bill, error) {
	return a.storage.GetBill(ctx, id)
}

func (a *SQLiteAdapter) CreateBill(ctx context.Context, b core.Bill) (string, error) {
	return a.service.CreateBill(ctx, b)
}

// Ping checks the database for /readyz.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}
