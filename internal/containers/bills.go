// Package containers holds the page controllers: they fetch and shape data
// for the views and react to user actions.
package containers

import (
	"context"
	"errors"
	"fmt"

	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/routes"
	"billed/internal/session"
	"billed/internal/store"
)

const (
	// AttrBillURL is the attribute of an eye icon holding the receipt URL.
	AttrBillURL = "data-bill-url"
	// NewBillButtonID identifies the new bill button in Bind.
	NewBillButtonID = "btn-new-bill"
)

// ErrNoStore is returned by GetBills when the page was built without a store.
var ErrNoStore = errors.New("bills page has no store")

// Modal is the receipt viewer driven by the bills page.
type Modal interface {
	Width() int
	SetImage(url string, width int)
	Show()
}

// Element is a rendered element the user can act on.
type Element struct {
	ID    string
	Attrs map[string]string
}

func (e Element) Attr(name string) string {
	return e.Attrs[name]
}

type Options struct {
	Navigate routes.Navigator
	Store    store.BillLister
	Session  session.Store
	Modal    Modal
	Logger   *log.Logger
}

// Bills is the controller of the employee bills page.
type Bills struct {
	navigate routes.Navigator
	store    store.BillLister
	session  session.Store
	modal    Modal
	logger   *log.Logger
}

func NewBills(opts Options) *Bills {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Bills{
		navigate: opts.Navigate,
		store:    opts.Store,
		session:  opts.Session,
		modal:    opts.Modal,
		logger:   logger.WithComponent(log.ComponentBills),
	}
}

// GetBills lists the bills of the session user, most recent first, ready
// for display. A record whose date cannot be formatted is kept raw. Source
// errors are returned unchanged.
func (c *Bills) GetBills(ctx context.Context) ([]core.DisplayBill, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	user, err := session.Current(c.session)
	if err != nil {
		return nil, err
	}

	bills, err := c.store.ListBills(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	core.SortBillsByDateDesc(bills)
	out := FormatBills(ctx, c.logger, bills)

	c.logger.DebugContext(ctx, "Bills fetched", log.FieldOwner, user.Email, log.FieldCount, len(out))
	return out, nil
}

// FormatBills shapes bills for display in their given order. A record whose
// date cannot be formatted is logged and kept raw.
func FormatBills(ctx context.Context, logger *log.Logger, bills []core.Bill) []core.DisplayBill {
	out := make([]core.DisplayBill, 0, len(bills))
	for _, b := range bills {
		d, err := core.FormatBill(b)
		if err != nil {
			logger.WarnContext(ctx, "Bill kept unformatted",
				log.FieldBillID, b.ID,
				log.FieldBillDate, b.Date,
				log.FieldError, err)
			d = core.RawDisplay(b)
		}
		out = append(out, d)
	}
	return out
}

// HandleClickNewBill navigates to the new bill page.
func (c *Bills) HandleClickNewBill() {
	if c.navigate != nil {
		c.navigate(routes.NewBill)
	}
}

// HandleClickIconEye opens the receipt of the clicked icon in the modal,
// the image taking half the modal width.
func (c *Bills) HandleClickIconEye(icon Element) error {
	if c.modal == nil {
		return fmt.Errorf("no modal to show receipt")
	}
	url := icon.Attr(AttrBillURL)
	c.modal.SetImage(url, c.modal.Width()/2)
	c.modal.Show()
	return nil
}

// Bind maps element ids to their click handlers: the new bill button and
// each eye icon.
func (c *Bills) Bind(icons []Element) map[string]func() {
	handlers := make(map[string]func(), len(icons)+1)
	handlers[NewBillButtonID] = c.HandleClickNewBill
	for _, icon := range icons {
		icon := icon
		handlers[icon.ID] = func() {
			if err := c.HandleClickIconEye(icon); err != nil {
				c.logger.Warn("Receipt not shown", log.FieldError, err)
			}
		}
	}
	return handlers
}

// EyeIcon builds the eye icon element of a bill, as rendered in the list.
func EyeIcon(b core.Bill) Element {
	return Element{
		ID:    "eye-" + b.ID,
		Attrs: map[string]string{AttrBillURL: b.FileURL},
	}
}
