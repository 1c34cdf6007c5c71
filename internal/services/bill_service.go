package services

import (
	"context"
	"errors"
	"fmt"

	"billed/internal/core"
	"billed/internal/log"
)

// BillRepository is the local store bills are written to first.
type BillRepository interface {
	CreateBill(ctx context.Context, b core.Bill) (string, error)
	Close() error
}

// Publisher announces a stored bill to the sync worker.
type Publisher interface {
	PublishBillSync(ctx context.Context, id string, version int64) error
	Close() error
}

// BillService saves bills locally and queues them for the back office.
type BillService struct {
	storage   BillRepository
	publisher Publisher
	logger    *log.Logger
}

// NewBillService builds the service. publisher may be nil, in which case bills
// are left pending for the worker's periodic sweep.
func NewBillService(storage BillRepository, publisher Publisher, logger *log.Logger) *BillService {
	if logger == nil {
		logger = log.Default()
	}
	return &BillService{
		storage:   storage,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentNewBill),
	}
}

// CreateBill persists b and publishes a version 1 sync message. A publish
// failure is logged only: the bill is saved and still marked pending.
func (s *BillService) CreateBill(ctx context.Context, b core.Bill) (string, error) {
	id, err := s.storage.CreateBill(ctx, b)
	if err != nil {
		return "", fmt.Errorf("save bill: %w", err)
	}

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, bill left for pending sweep", log.FieldBillID, id)
		return id, nil
	}
	if err := s.publisher.PublishBillSync(ctx, id, 1); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldBillID, id,
			log.FieldError, err)
	}
	return id, nil
}

// Close releases the repository and the publisher.
func (s *BillService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close bill service: %w", err)
	}
	return nil
}
