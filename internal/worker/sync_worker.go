// Package worker pushes bills saved in SQLite to the Google Sheets back office.
package worker

import (
	"context"
	"errors"
	"fmt"

	"billed/internal/amqp"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/storage"
	"billed/internal/store"
)

// Source is the local side of the sync: SQLite in production.
type Source interface {
	GetBillForSync(ctx context.Context, id string) (core.Bill, int64, error)
	GetPendingSyncBills(ctx context.Context, limit int) ([]storage.PendingSyncBill, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
	RequeueSyncErrors(ctx context.Context, limit int) (int, error)
}

// Target is the back office bills are copied to.
type Target interface {
	store.BillWriter
	store.BillGetter
}

// Sync results recorded in metrics.
const (
	ResultSynced  = "synced"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

type SyncWorker struct {
	source    Source
	target    Target
	batchSize int
	logger    *log.Logger
	metrics   *metrics.Registry
}

func NewSyncWorker(source Source, target Target, batchSize int, logger *log.Logger, reg *metrics.Registry) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SyncWorker{
		source:    source,
		target:    target,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
		metrics:   reg,
	}
}

// HandleSyncMessage syncs the bill named by msg. Messages older than the
// stored version are acknowledged without work.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.BillSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message", log.FieldBillID, msg.ID, "version", msg.Version)

	bill, version, err := w.source.GetBillForSync(ctx, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Nothing to retry: the row is gone.
		w.logger.WarnContext(ctx, "Bill from sync message not found", log.FieldBillID, msg.ID)
		w.record(ResultSkipped)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get bill from storage: %w", err)
	}
	if msg.Version < version {
		w.logger.InfoContext(ctx, "Skipping outdated sync message",
			log.FieldBillID, msg.ID,
			"message_version", msg.Version,
			"stored_version", version)
		w.record(ResultSkipped)
		return nil
	}
	return w.syncBill(ctx, bill)
}

// ProcessPendingBills requeues bills that failed an earlier sync, then syncs
// up to one batch of pending bills and returns how many were pushed.
// Individual failures are marked and retried by the next sweep.
func (w *SyncWorker) ProcessPendingBills(ctx context.Context) (int, error) {
	if n, err := w.source.RequeueSyncErrors(ctx, w.batchSize); err != nil {
		w.logger.ErrorContext(ctx, "Failed to requeue sync errors", log.FieldError, err)
	} else if n > 0 {
		w.logger.InfoContext(ctx, "Retrying failed syncs", log.FieldCount, n)
	}

	pending, err := w.source.GetPendingSyncBills(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending bills: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending bills", log.FieldCount, len(pending))

	synced := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		bill, _, err := w.source.GetBillForSync(ctx, p.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to load pending bill", log.FieldBillID, p.ID, log.FieldError, err)
			w.markError(ctx, p.ID)
			continue
		}
		if err := w.syncBill(ctx, bill); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync pending bill", log.FieldBillID, p.ID, log.FieldError, err)
			continue
		}
		synced++
	}
	return synced, nil
}

// syncBill appends bill to the target unless a row with its id already
// exists there, so redelivered messages do not duplicate rows.
func (w *SyncWorker) syncBill(ctx context.Context, bill core.Bill) error {
	if _, err := w.target.GetBill(ctx, bill.ID); err == nil {
		w.logger.InfoContext(ctx, "Bill already in back office", log.FieldBillID, bill.ID)
		if err := w.source.MarkSynced(ctx, bill.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldBillID, bill.ID, log.FieldError, err)
		}
		w.record(ResultSkipped)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		w.markError(ctx, bill.ID)
		w.record(ResultFailed)
		return fmt.Errorf("look up bill in back office: %w", err)
	}

	if _, err := w.target.CreateBill(ctx, bill); err != nil {
		w.markError(ctx, bill.ID)
		w.record(ResultFailed)
		return fmt.Errorf("append to back office: %w", err)
	}

	// The append succeeded; a failed status update is retried by the next sweep.
	if err := w.source.MarkSynced(ctx, bill.ID); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldBillID, bill.ID, log.FieldError, err)
	}
	w.record(ResultSynced)

	w.logger.InfoContext(ctx, "Bill synced",
		log.FieldBillID, bill.ID,
		log.FieldOwner, bill.Email,
		log.FieldAmountCents, bill.Amount.Cents)
	return nil
}

func (w *SyncWorker) markError(ctx context.Context, id string) {
	if err := w.source.MarkSyncError(ctx, id); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldBillID, id, log.FieldError, err)
	}
}

func (w *SyncWorker) record(result string) {
	if w.metrics != nil {
		w.metrics.SyncOutcomes.WithLabelValues(result).Inc()
	}
}
