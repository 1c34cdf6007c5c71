package containers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/routes"
	"billed/internal/session"
	"billed/internal/store"
)

var allowedReceiptExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// NewBillSubmission is the submitted new bill form.
type NewBillSubmission struct {
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
	FileName   string
	FileURL    string
}

type NewBillOptions struct {
	Navigate routes.Navigator
	Store    store.BillWriter
	Session  session.Store
	Logger   *log.Logger
}

// NewBill is the controller of the new bill page.
type NewBill struct {
	navigate routes.Navigator
	store    store.BillWriter
	session  session.Store
	logger   *log.Logger
}

func NewNewBill(opts NewBillOptions) *NewBill {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &NewBill{
		navigate: opts.Navigate,
		store:    opts.Store,
		session:  opts.Session,
		logger:   logger.WithComponent(log.ComponentNewBill),
	}
}

// HandleChangeFile accepts jpg, jpeg and png receipts only.
func (c *NewBill) HandleChangeFile(name string) error {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	if !allowedReceiptExt[ext] {
		return fmt.Errorf("%w: %q", core.ErrUnsupportedFile, name)
	}
	return nil
}

// HandleSubmit creates a pending bill owned by the session user, then
// navigates back to the bills page.
func (c *NewBill) HandleSubmit(ctx context.Context, form NewBillSubmission) (string, error) {
	user, err := session.Current(c.session)
	if err != nil {
		return "", err
	}
	if err := c.HandleChangeFile(form.FileName); err != nil {
		return "", err
	}

	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		return "", err
	}
	pct := 20
	if v := strings.TrimSpace(form.Pct); v != "" {
		pct, err = strconv.Atoi(v)
		if err != nil {
			return "", core.ErrInvalidPct
		}
	}

	bill := core.Bill{
		ID:         uuid.New().String(),
		Email:      user.Email,
		Type:       strings.TrimSpace(form.Type),
		Name:       strings.TrimSpace(form.Name),
		Date:       strings.TrimSpace(form.Date),
		Amount:     core.Money{Cents: cents},
		VAT:        strings.TrimSpace(form.VAT),
		Pct:        pct,
		Commentary: strings.TrimSpace(form.Commentary),
		FileURL:    form.FileURL,
		FileName:   form.FileName,
		Status:     core.StatusPending,
	}
	if bill.Name == "" {
		// Name is optional in the form; the type stands in for it.
		bill.Name = bill.Type
	}
	if err := bill.Validate(); err != nil {
		return "", err
	}

	id, err := c.store.CreateBill(ctx, bill)
	if err != nil {
		return "", fmt.Errorf("create bill: %w", err)
	}

	c.logger.InfoContext(ctx, "Bill submitted",
		log.FieldBillID, id,
		log.FieldOwner, bill.Email,
		log.FieldAmountCents, bill.Amount.Cents)

	if c.navigate != nil {
		c.navigate(routes.Bills)
	}
	return id, nil
}

// IsValidationError reports whether err is a user input problem.
func IsValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrEmptyName, core.ErrEmptyType, core.ErrEmptyOwner,
		core.ErrInvalidStatus, core.ErrInvalidPct, core.ErrMissingReceipt,
		core.ErrMalformedDate, core.ErrUnsupportedFile, core.ErrCommentaryLength,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
