package storage

import (
	"database/sql"
	"time"
)

// Bill is a row of the bills table.
type Bill struct {
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
	Version      int64
	SyncStatus   string
	SyncedAt     sql.NullTime
	CreatedAt    time.Time
}

// User is a row of the users table.
type User struct {
	Email        string
	Type         string
	PasswordHash string
	CreatedAt    time.Time
}
