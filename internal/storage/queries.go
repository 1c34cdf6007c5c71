package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const billColumns = `id, email, type, name, date, amount_cents, vat, pct, commentary, comment_admin,
file_url, file_name, status, version, sync_status, synced_at, created_at`

func scanBill(row interface{ Scan(...interface{}) error }) (Bill, error) {
	var i Bill
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Type,
		&i.Name,
		&i.Date,
		&i.AmountCents,
		&i.Vat,
		&i.Pct,
		&i.Commentary,
		&i.CommentAdmin,
		&i.FileUrl,
		&i.FileName,
		&i.Status,
		&i.Version,
		&i.SyncStatus,
		&i.SyncedAt,
		&i.CreatedAt,
	)
	return i, err
}

const createBill = `INSERT INTO bills (
    id, email, type, name, date, amount_cents, vat, pct, commentary, comment_admin, file_url, file_name, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + billColumns

type CreateBillParams struct {
	ID           string
	Email        string
	Type         string
	Name         string
	Date         string
	AmountCents  int64
	Vat          string
	Pct          int64
	Commentary   string
	CommentAdmin string
	FileUrl      string
	FileName     string
	Status       string
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRowContext(ctx, createBill,
		arg.ID,
		arg.Email,
		arg.Type,
		arg.Name,
		arg.Date,
		arg.AmountCents,
		arg.Vat,
		arg.Pct,
		arg.Commentary,
		arg.CommentAdmin,
		arg.FileUrl,
		arg.FileName,
		arg.Status,
	)
	return scanBill(row)
}

const getBill = `SELECT ` + billColumns + ` FROM bills WHERE id = ?`

func (q *Queries) GetBill(ctx context.Context, id string) (Bill, error) {
	return scanBill(q.db.QueryRowContext(ctx, getBill, id))
}

const listBills = `SELECT ` + billColumns + ` FROM bills ORDER BY created_at`

func (q *Queries) ListBills(ctx context.Context) ([]Bill, error) {
	return q.queryBills(ctx, listBills)
}

const listBillsByEmail = `SELECT ` + billColumns + ` FROM bills WHERE email = ? ORDER BY created_at`

func (q *Queries) ListBillsByEmail(ctx context.Context, email string) ([]Bill, error) {
	return q.queryBills(ctx, listBillsByEmail, email)
}

const getPendingSyncBills = `SELECT ` + billColumns + ` FROM bills
WHERE sync_status = 'pending'
ORDER BY created_at
LIMIT ?`

func (q *Queries) GetPendingSyncBills(ctx context.Context, limit int64) ([]Bill, error) {
	return q.queryBills(ctx, getPendingSyncBills, limit)
}

func (q *Queries) queryBills(ctx context.Context, query string, args ...interface{}) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Bill
	for rows.Next() {
		i, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markBillSynced = `UPDATE bills SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP WHERE id = ?`

func (q *Queries) MarkBillSynced(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markBillSynced, id)
	return err
}

const markBillSyncError = `UPDATE bills SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkBillSyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markBillSyncError, id)
	return err
}

const listSyncErrorIDs = `SELECT id FROM bills WHERE sync_status = 'error' ORDER BY created_at LIMIT ?`

func (q *Queries) ListSyncErrorIDs(ctx context.Context, limit int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSyncErrorIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const requeueBillSync = `UPDATE bills SET sync_status = 'pending', version = version + 1
WHERE id = ? AND sync_status = 'error'`

func (q *Queries) RequeueBillSync(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, requeueBillSync, id)
	return err
}

const createUser = `INSERT INTO users (email, type, password_hash) VALUES (?, ?, ?)
ON CONFLICT(email) DO UPDATE SET type = excluded.type, password_hash = excluded.password_hash`

type CreateUserParams struct {
	Email        string
	Type         string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser, arg.Email, arg.Type, arg.PasswordHash)
	return err
}

const getUserByEmail = `SELECT email, type, password_hash, created_at FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.Email, &i.Type, &i.PasswordHash, &i.CreatedAt)
	return i, err
}
