package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"billed/internal/core"
	"billed/internal/store"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ store.BillLister = (*SQLiteRepository)(nil)
	_ store.BillWriter = (*SQLiteRepository)(nil)
	_ store.BillGetter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateBill implements store.BillWriter. New rows start with sync_status 'pending'.
func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) (string, error) {
	if err := b.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	row, err := r.queries.CreateBill(ctx, CreateBillParams{
		ID:           b.ID,
		Email:        b.Email,
		Type:         b.Type,
		Name:         b.Name,
		Date:         b.Date,
		AmountCents:  b.Amount.Cents,
		Vat:          b.VAT,
		Pct:          int64(b.Pct),
		Commentary:   b.Commentary,
		CommentAdmin: b.CommentAdmin,
		FileUrl:      b.FileURL,
		FileName:     b.FileName,
		Status:       string(b.Status),
	})
	if err != nil {
		return "", fmt.Errorf("create bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", row.ID,
		"owner", row.Email,
		"amount_cents", row.AmountCents,
		"date", row.Date)

	return row.ID, nil
}

// ListBills implements store.BillLister. An empty owner lists every bill.
func (r *SQLiteRepository) ListBills(ctx context.Context, owner string) ([]core.Bill, error) {
	var (
		rows []Bill
		err  error
	)
	if owner == "" {
		rows, err = r.queries.ListBills(ctx)
	} else {
		rows, err = r.queries.ListBillsByEmail(ctx, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}

	bills := make([]core.Bill, len(rows))
	for i, row := range rows {
		bills[i] = row.toCore()
	}
	return bills, nil
}

// GetBill implements store.BillGetter.
func (r *SQLiteRepository) GetBill(ctx context.Context, id string) (core.Bill, error) {
	row, err := r.queries.GetBill(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("get bill %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill by id: %w", err)
	}
	return row.toCore(), nil
}

// GetBillForSync returns a bill along with its sync version.
func (r *SQLiteRepository) GetBillForSync(ctx context.Context, id string) (core.Bill, int64, error) {
	row, err := r.queries.GetBill(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, 0, fmt.Errorf("get bill %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Bill{}, 0, fmt.Errorf("get bill by id: %w", err)
	}
	return row.toCore(), row.Version, nil
}

// GetPendingSyncBills returns bills that still need to be pushed to Google Sheets.
func (r *SQLiteRepository) GetPendingSyncBills(ctx context.Context, limit int) ([]PendingSyncBill, error) {
	rows, err := r.queries.GetPendingSyncBills(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync bills: %w", err)
	}

	pending := make([]PendingSyncBill, len(rows))
	for i, row := range rows {
		pending[i] = PendingSyncBill{
			ID:        row.ID,
			Version:   row.Version,
			CreatedAt: row.CreatedAt,
		}
	}
	return pending, nil
}

// MarkSynced marks a bill as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.queries.MarkBillSynced(ctx, id); err != nil {
		return fmt.Errorf("mark bill synced: %w", err)
	}
	slog.InfoContext(ctx, "Bill marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a bill as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkBillSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark bill sync error: %w", err)
	}
	slog.WarnContext(ctx, "Bill marked with sync error", "id", id)
	return nil
}

// RequeueSyncErrors moves up to limit bills in sync error back to pending and
// bumps their version, so sync messages queued before the failure are
// skipped. The selection and the updates commit together.
func (r *SQLiteRepository) RequeueSyncErrors(ctx context.Context, limit int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin requeue: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	ids, err := q.ListSyncErrorIDs(ctx, int64(limit))
	if err != nil {
		return 0, fmt.Errorf("list sync errors: %w", err)
	}
	for _, id := range ids {
		if err := q.RequeueBillSync(ctx, id); err != nil {
			return 0, fmt.Errorf("requeue bill %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit requeue: %w", err)
	}
	if len(ids) > 0 {
		slog.InfoContext(ctx, "Bills requeued for sync", "count", len(ids))
	}
	return len(ids), nil
}

// CreateUser inserts or replaces an account.
func (r *SQLiteRepository) CreateUser(ctx context.Context, a core.Account) error {
	err := r.queries.CreateUser(ctx, CreateUserParams{
		Email:        a.User.Email,
		Type:         string(a.User.Type),
		PasswordHash: a.PasswordHash,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns store.ErrNotFound for unknown emails.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.Account, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("get user %s: %w", email, store.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get user by email: %w", err)
	}
	return core.Account{
		User:         core.User{Type: core.UserType(row.Type), Email: row.Email},
		PasswordHash: row.PasswordHash,
	}, nil
}

// PendingSyncBill represents minimal data needed for sync queue messages
type PendingSyncBill struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

func (b Bill) toCore() core.Bill {
	return core.Bill{
		ID:           b.ID,
		Email:        b.Email,
		Type:         b.Type,
		Name:         b.Name,
		Date:         b.Date,
		Amount:       core.Money{Cents: b.AmountCents},
		VAT:          b.Vat,
		Pct:          int(b.Pct),
		Commentary:   b.Commentary,
		CommentAdmin: b.CommentAdmin,
		FileURL:      b.FileUrl,
		FileName:     b.FileName,
		Status:       core.Status(b.Status),
	}
}
