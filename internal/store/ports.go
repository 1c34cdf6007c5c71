package store

import (
	"context"
	"errors"
	"fmt"

	"billed/internal/core"
)

// ErrNotFound is returned by BillGetter when no bill has the requested id.
var ErrNotFound = errors.New("bill not found")

// Ports for outbound adapters.
type (
	// BillLister is the remote bill source behind the bills page.
	BillLister interface {
		// ListBills returns the bills owned by owner; an empty owner lists every bill.
		ListBills(ctx context.Context, owner string) ([]core.Bill, error)
	}

	BillWriter interface {
		CreateBill(ctx context.Context, b core.Bill) (id string, err error)
	}

	BillGetter interface {
		GetBill(ctx context.Context, id string) (core.Bill, error)
	}
)

// StatusError is a failed remote call. Its message is shown to the user
// as is, e.g. "Erreur 404".
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Erreur %d", e.Code)
}

// NewStatusError returns a StatusError for the given HTTP status code.
func NewStatusError(code int) error {
	return &StatusError{Code: code}
}

// StatusCode extracts the status of a StatusError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
