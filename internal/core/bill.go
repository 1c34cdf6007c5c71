// Package core holds the bill domain and the formatting and ordering the
// bills page applies to it.
package core

import (
	"errors"
	"strings"
)

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

const (
	Employee UserType = "Employee"
	Admin    UserType = "Admin"
)

type (
	// Status is the approval state of a bill.
	Status string

	UserType string

	// User is the identity persisted in the session under the "user" key.
	User struct {
		Type  UserType `json:"type"`
		Email string   `json:"email"`
	}

	Money struct {
		Cents int64
	}

	// Bill is a raw expense record as returned by a bill source.
	Bill struct {
		ID           string
		Email        string // Owner
		Type         string // Expense type, e.g. "Transports"
		Name         string
		Date         string // ISO YYYY-MM-DD, as stored
		Amount       Money
		VAT          string
		Pct          int
		Commentary   string
		CommentAdmin string
		FileURL      string
		FileName     string
		Status       Status
	}

	// DisplayBill is a Bill ready for the list view.
	DisplayBill struct {
		Bill
		DisplayDate string
		StatusLabel string
		// Formatted is false when the record is shown raw because its date could not be formatted.
		Formatted bool
	}
)

// ExpenseTypes lists the expense types offered by the new bill form.
var ExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyType        = errors.New("empty expense type")
	ErrEmptyOwner       = errors.New("empty owner email")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPct       = errors.New("invalid vat percentage")
	ErrMissingReceipt   = errors.New("missing receipt")
	ErrMalformedDate    = errors.New("malformed date")
	ErrUnsupportedFile  = errors.New("unsupported receipt file type")
	ErrCommentaryLength = errors.New("commentary too long (max 500 characters)")
)

// Valid reports whether s belongs to the closed set of workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// Label returns the human readable workflow label.
func (s Status) Label() string {
	return FormatStatus(s)
}

func (t UserType) IsEmployee() bool {
	return t == Employee
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the fields required to create a bill.
func (b Bill) Validate() error {
	if strings.TrimSpace(b.Email) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(b.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if _, err := ParseDate(b.Date); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Pct < 0 || b.Pct > 100 {
		return ErrInvalidPct
	}
	if len(b.Commentary) > 500 {
		return ErrCommentaryLength
	}
	if strings.TrimSpace(b.FileURL) == "" && strings.TrimSpace(b.FileName) == "" {
		return ErrMissingReceipt
	}
	if !b.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
