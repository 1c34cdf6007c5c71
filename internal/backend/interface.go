// Package backend selects and builds the bill data source from configuration.
package backend

import (
	"context"

	"billed/internal/auth"
	"billed/internal/store"
)

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	APIBackend    BackendType = "api"
)

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, SheetsBackend, APIBackend:
		return true
	}
	return false
}

// Bills is the full set of bill ports the HTTP layer needs.
type Bills interface {
	store.BillLister
	store.BillGetter
	store.BillWriter
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result is a ready-to-use backend.
type Result struct {
	Bills Bills
	Users auth.UserStorage
	// Ready reports whether the backend can serve traffic.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup when one is set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Config carries the settings each backend type needs.
type Config struct {
	Type BackendType

	DataDirectory string

	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID string
	GoogleSheetName     string

	BillsAPIURL string
}
