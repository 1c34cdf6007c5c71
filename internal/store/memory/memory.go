package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"billed/internal/core"
	"billed/internal/store"
)

// Ensure interface conformance
var (
	_ store.BillLister = (*Store)(nil)
	_ store.BillWriter = (*Store)(nil)
	_ store.BillGetter = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	items []core.Bill
}

func New(bills []core.Bill) *Store {
	return &Store{items: append([]core.Bill(nil), bills...)}
}

// NewFromFiles seeds the store from base/bills.json, falling back to the
// built-in fixtures when the file is missing or unreadable.
func NewFromFiles(base string) *Store {
	bills := readBills(filepath.Join(base, "bills.json"))
	if len(bills) == 0 {
		bills = Fixtures()
	}
	return New(bills)
}

// ListBills returns a copy of the stored bills, in insertion order.
func (s *Store) ListBills(_ context.Context, owner string) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Bill, 0, len(s.items))
	for _, b := range s.items {
		if owner == "" || b.Email == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

// CreateBill stores the bill and returns its id, generating one when empty.
func (s *Store) CreateBill(_ context.Context, b core.Bill) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, b)
	return b.ID, nil
}

func (s *Store) GetBill(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.items {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Bill{}, fmt.Errorf("get bill %s: %w", id, store.ErrNotFound)
}

func readBills(path string) []core.Bill {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var raw []store.BillJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]core.Bill, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.ToCore())
	}
	return out
}
