package containers

import (
	"context"
	"errors"
	"testing"

	"billed/internal/core"
	"billed/internal/routes"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/store/memory"
	"billed/internal/views"
)

type fakeLister struct {
	bills  []core.Bill
	err    error
	calls  int
	owner  string
	during func()
}

func (f *fakeLister) ListBills(_ context.Context, owner string) ([]core.Bill, error) {
	f.calls++
	f.owner = owner
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]core.Bill(nil), f.bills...), nil
}

func employeeSession(t *testing.T) session.Store {
	t.Helper()
	s := session.NewMemoryStore()
	if err := session.Save(s, core.User{Type: core.Employee, Email: "a@a"}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGetBillsSortsAndFormats(t *testing.T) {
	lister := &fakeLister{bills: memory.Fixtures()}
	c := NewBills(Options{Store: lister, Session: employeeSession(t)})

	got, err := c.GetBills(context.Background())
	if err != nil {
		t.Fatalf("GetBills: %v", err)
	}
	if lister.owner != "a@a" {
		t.Fatalf("owner = %q, want a@a", lister.owner)
	}
	want := []string{"2004-04-04", "2003-03-03", "2002-02-02", "2001-01-01"}
	if len(got) != len(want) {
		t.Fatalf("got %d bills", len(got))
	}
	for i, d := range got {
		if d.Date != want[i] || !d.Formatted {
			t.Errorf("bill %d = %s (formatted=%v), want %s", i, d.Date, d.Formatted, want[i])
		}
	}
	if got[0].DisplayDate != "4 Avr. 04" || got[0].StatusLabel != "En attente" {
		t.Fatalf("unexpected display of first bill: %+v", got[0])
	}
}

func TestGetBillsKeepsMalformedRecordRaw(t *testing.T) {
	bad := core.Bill{ID: "bad", Email: "a@a", Date: "not-a-date", Status: core.StatusPending}
	good := core.Bill{ID: "good", Email: "a@a", Date: "2001-01-01", Status: core.StatusAccepted}
	c := NewBills(Options{Store: &fakeLister{bills: []core.Bill{good, bad}}, Session: employeeSession(t)})

	got, err := c.GetBills(context.Background())
	if err != nil {
		t.Fatalf("GetBills: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both records, got %d", len(got))
	}
	var raw core.DisplayBill
	for _, d := range got {
		if d.ID == "bad" {
			raw = d
		}
	}
	if raw.Formatted || raw.DisplayDate != "not-a-date" || raw.StatusLabel != "pending" {
		t.Fatalf("malformed record must stay raw: %+v", raw)
	}
}

func TestGetBillsPropagatesErrors(t *testing.T) {
	for _, code := range []int{404, 500} {
		c := NewBills(Options{Store: &fakeLister{err: store.NewStatusError(code)}, Session: employeeSession(t)})
		_, err := c.GetBills(context.Background())
		if got, ok := store.StatusCode(err); !ok || got != code {
			t.Fatalf("expected status %d, got %v", code, err)
		}
	}
}

func TestGetBillsWithoutStoreOrSession(t *testing.T) {
	c := NewBills(Options{Session: employeeSession(t)})
	if got, err := c.GetBills(context.Background()); got != nil || !errors.Is(err, ErrNoStore) {
		t.Fatalf("no store: got %v, %v; want ErrNoStore", got, err)
	}

	c = NewBills(Options{Store: &fakeLister{}, Session: session.NewMemoryStore()})
	if _, err := c.GetBills(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestHandleClickNewBillNavigatesOnce(t *testing.T) {
	var calls []string
	c := NewBills(Options{Navigate: func(r string) { calls = append(calls, r) }})
	c.HandleClickNewBill()
	if len(calls) != 1 || calls[0] != routes.NewBill {
		t.Fatalf("navigate calls = %v", calls)
	}
}

func TestHandleClickIconEyeShowsModalOnce(t *testing.T) {
	modal := views.NewModal(800)
	c := NewBills(Options{Modal: modal})
	bill := memory.Fixtures()[0]

	if err := c.HandleClickIconEye(EyeIcon(bill)); err != nil {
		t.Fatal(err)
	}
	data := modal.Data()
	if modal.ShowCount() != 1 || !data.Show {
		t.Fatalf("modal shown %d times", modal.ShowCount())
	}
	if data.URL != bill.FileURL || data.ImageWidth != 400 {
		t.Fatalf("unexpected modal data: %+v", data)
	}
}

func TestBind(t *testing.T) {
	modal := views.NewModal(600)
	navigated := 0
	c := NewBills(Options{Modal: modal, Navigate: func(string) { navigated++ }})
	bills := memory.Fixtures()
	icons := []Element{EyeIcon(bills[0]), EyeIcon(bills[1])}

	handlers := c.Bind(icons)
	if len(handlers) != 3 {
		t.Fatalf("expected 3 handlers, got %d", len(handlers))
	}
	handlers[NewBillButtonID]()
	handlers[icons[1].ID]()
	if navigated != 1 || modal.ShowCount() != 1 || modal.Data().URL != bills[1].FileURL {
		t.Fatalf("navigated=%d shown=%d url=%s", navigated, modal.ShowCount(), modal.Data().URL)
	}
	if modal.Data().ImageWidth != 300 {
		t.Fatalf("image width = %d", modal.Data().ImageWidth)
	}
}
