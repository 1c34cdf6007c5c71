package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"billed/internal/amqp"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/storage"
	"billed/internal/store"
)

type fakeSource struct {
	bills    map[string]core.Bill
	versions map[string]int64
	pending  []storage.PendingSyncBill
	synced   []string
	errored  []string
}

func newFakeSource(bills ...core.Bill) *fakeSource {
	s := &fakeSource{bills: map[string]core.Bill{}, versions: map[string]int64{}}
	for _, b := range bills {
		s.bills[b.ID] = b
		s.versions[b.ID] = 1
		s.pending = append(s.pending, storage.PendingSyncBill{ID: b.ID, Version: 1})
	}
	return s
}

func (s *fakeSource) GetBillForSync(_ context.Context, id string) (core.Bill, int64, error) {
	b, ok := s.bills[id]
	if !ok {
		return core.Bill{}, 0, fmt.Errorf("get bill %s: %w", id, store.ErrNotFound)
	}
	return b, s.versions[id], nil
}

func (s *fakeSource) GetPendingSyncBills(_ context.Context, limit int) ([]storage.PendingSyncBill, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeSource) MarkSynced(_ context.Context, id string) error {
	s.synced = append(s.synced, id)
	return nil
}

func (s *fakeSource) MarkSyncError(_ context.Context, id string) error {
	s.errored = append(s.errored, id)
	return nil
}

// RequeueSyncErrors puts errored bills back in the pending list at the next version.
func (s *fakeSource) RequeueSyncErrors(_ context.Context, limit int) (int, error) {
	n := min(limit, len(s.errored))
	for _, id := range s.errored[:n] {
		s.versions[id]++
		s.pending = append(s.pending, storage.PendingSyncBill{ID: id, Version: s.versions[id]})
	}
	s.errored = s.errored[n:]
	return n, nil
}

type fakeTarget struct {
	rows      map[string]core.Bill
	appendErr error
	appends   int
}

func (t *fakeTarget) CreateBill(_ context.Context, b core.Bill) (string, error) {
	if t.appendErr != nil {
		return "", t.appendErr
	}
	t.appends++
	t.rows[b.ID] = b
	return b.ID, nil
}

func (t *fakeTarget) GetBill(_ context.Context, id string) (core.Bill, error) {
	if b, ok := t.rows[id]; ok {
		return b, nil
	}
	return core.Bill{}, store.ErrNotFound
}

func bill(id string) core.Bill {
	return core.Bill{ID: id, Email: "a@a", Type: "Transports", Name: id, Date: "2024-01-02",
		Amount: core.Money{Cents: 1200}, Pct: 20, FileName: "r.png", Status: core.StatusPending}
}

func newWorker(src Source, tgt Target, reg *metrics.Registry) *SyncWorker {
	return NewSyncWorker(src, tgt, 2, log.New(log.Config{Output: io.Discard}), reg)
}

func TestHandleSyncMessage(t *testing.T) {
	reg := metrics.New()
	src := newFakeSource(bill("b1"))
	tgt := &fakeTarget{rows: map[string]core.Bill{}}
	w := newWorker(src, tgt, reg)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewBillSyncMessage("b1", 1)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if tgt.appends != 1 || len(src.synced) != 1 {
		t.Fatalf("appends=%d synced=%v", tgt.appends, src.synced)
	}

	// Redelivery must not append a second row.
	if err := w.HandleSyncMessage(ctx, amqp.NewBillSyncMessage("b1", 1)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if tgt.appends != 1 {
		t.Fatalf("redelivery appended again: %d", tgt.appends)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewBillSyncMessage("missing", 1)); err != nil {
		t.Fatalf("missing bill should be dropped, got %v", err)
	}

	if got := testutil.ToFloat64(reg.SyncOutcomes.WithLabelValues(ResultSynced)); got != 1 {
		t.Fatalf("synced counter = %v", got)
	}
	if got := testutil.ToFloat64(reg.SyncOutcomes.WithLabelValues(ResultSkipped)); got != 2 {
		t.Fatalf("skipped counter = %v", got)
	}
}

func TestHandleSyncMessageSkipsOutdatedVersion(t *testing.T) {
	src := newFakeSource(bill("b1"))
	src.versions["b1"] = 3
	tgt := &fakeTarget{rows: map[string]core.Bill{}}

	if err := newWorker(src, tgt, nil).HandleSyncMessage(context.Background(), amqp.NewBillSyncMessage("b1", 2)); err != nil {
		t.Fatal(err)
	}
	if tgt.appends != 0 {
		t.Fatal("outdated message should not sync")
	}
}

func TestHandleSyncMessageTargetFailure(t *testing.T) {
	src := newFakeSource(bill("b1"))
	tgt := &fakeTarget{rows: map[string]core.Bill{}, appendErr: errors.New("quota exceeded")}

	err := newWorker(src, tgt, nil).HandleSyncMessage(context.Background(), amqp.NewBillSyncMessage("b1", 1))
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if len(src.errored) != 1 || len(src.synced) != 0 {
		t.Fatalf("errored=%v synced=%v", src.errored, src.synced)
	}
}

func TestProcessPendingBills(t *testing.T) {
	src := newFakeSource(bill("b1"), bill("b2"), bill("b3"))
	tgt := &fakeTarget{rows: map[string]core.Bill{}}

	n, err := newWorker(src, tgt, nil).ProcessPendingBills(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingBills: %v", err)
	}
	if n != 2 || tgt.appends != 2 {
		t.Fatalf("batch of 2 expected, got n=%d appends=%d", n, tgt.appends)
	}
}

func TestProcessPendingBillsMarksUnloadable(t *testing.T) {
	src := newFakeSource()
	src.pending = []storage.PendingSyncBill{{ID: "ghost", Version: 1}}
	tgt := &fakeTarget{rows: map[string]core.Bill{}}

	n, err := newWorker(src, tgt, nil).ProcessPendingBills(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if len(src.errored) != 1 || src.errored[0] != "ghost" {
		t.Fatalf("errored = %v", src.errored)
	}
}

func TestProcessPendingBillsRetriesSyncErrors(t *testing.T) {
	src := newFakeSource(bill("b1"))
	src.pending = nil
	src.errored = []string{"b1"}
	tgt := &fakeTarget{rows: map[string]core.Bill{}}

	n, err := newWorker(src, tgt, nil).ProcessPendingBills(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingBills: %v", err)
	}
	if n != 1 || tgt.appends != 1 {
		t.Fatalf("errored bill not retried: n=%d appends=%d", n, tgt.appends)
	}
	if len(src.errored) != 0 || src.versions["b1"] != 2 {
		t.Fatalf("errored=%v version=%d", src.errored, src.versions["b1"])
	}

	// A message queued before the retry is now outdated.
	tgt.rows = map[string]core.Bill{}
	if err := newWorker(src, tgt, nil).HandleSyncMessage(context.Background(), amqp.NewBillSyncMessage("b1", 1)); err != nil {
		t.Fatal(err)
	}
	if tgt.appends != 1 {
		t.Fatalf("outdated message synced again: appends=%d", tgt.appends)
	}
}
