package views

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"billed/internal/core"
	"billed/internal/store/memory"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func fixtureDisplay(t *testing.T) []core.DisplayBill {
	t.Helper()
	var out []core.DisplayBill
	for _, b := range memory.Fixtures() {
		d, err := core.FormatBill(b)
		if err != nil {
			t.Fatalf("FormatBill: %v", err)
		}
		out = append(out, d)
	}
	return out
}

func TestBillsLoading(t *testing.T) {
	var buf bytes.Buffer
	if err := newRenderer(t).Bills(&buf, BillsData{Loading: true, Nav: 3}); err != nil {
		t.Fatal(err)
	}
	body := buf.String()
	if !strings.Contains(body, "Loading...") {
		t.Fatal("loading state must show Loading...")
	}
	if !strings.Contains(body, `hx-get="/ui/bills?nav=3"`) {
		t.Fatalf("loading shell must request the list for its navigation: %s", body)
	}
	if strings.Contains(body, `data-testid="tbody"`) {
		t.Fatal("loading state must not render the table")
	}
}

func TestBillsError(t *testing.T) {
	for _, msg := range []string{"Erreur 404", "Erreur 500"} {
		var buf bytes.Buffer
		if err := newRenderer(t).Bills(&buf, BillsData{Error: msg}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), msg) {
			t.Fatalf("error page must show %q", msg)
		}
	}
}

func TestBillsList(t *testing.T) {
	var buf bytes.Buffer
	err := newRenderer(t).Bills(&buf, BillsData{Data: fixtureDisplay(t)})
	if err != nil {
		t.Fatal(err)
	}
	body := buf.String()

	for _, want := range []string{
		"Mes notes de frais",
		`data-testid="btn-new-bill"`,
		"Nouvelle note de frais",
		`data-testid="icon-window" class="active-icon"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	start := strings.Index(body, `data-testid="tbody"`)
	end := strings.Index(body, "</tbody>")
	if start < 0 || end < start {
		t.Fatal("tbody not found")
	}
	tbody := body[start:end]
	if n := strings.Count(tbody, "<tr>"); n != 4 {
		t.Fatalf("expected 4 rows, got %d", n)
	}
	if n := strings.Count(tbody, `data-testid="icon-eye"`); n != 4 {
		t.Fatalf("expected 4 eye icons, got %d", n)
	}
}

func TestBillsDatesAreAntiChrono(t *testing.T) {
	var buf bytes.Buffer
	if err := newRenderer(t).BillsContent(&buf, BillsData{Data: fixtureDisplay(t)}); err != nil {
		t.Fatal(err)
	}
	dates := regexp.MustCompile(`<td>(\d{1,2} [^<]+\. \d{2})</td>`).FindAllStringSubmatch(buf.String(), -1)
	var got []string
	for _, m := range dates {
		got = append(got, m[1])
	}
	want := []string{"4 Avr. 04", "3 Mar. 03", "2 Fév. 02", "1 Jan. 01"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("dates = %v, want %v", got, want)
	}
}

func TestReceiptModal(t *testing.T) {
	m := NewModal(0)
	m.SetImage("https://x/receipt.png", m.Width()/2)
	m.Show()

	var buf bytes.Buffer
	if err := newRenderer(t).ReceiptModal(&buf, m.Data()); err != nil {
		t.Fatal(err)
	}
	body := buf.String()
	for _, want := range []string{`id="modaleFile"`, "modal show", `src="https://x/receipt.png"`, `width="400"`} {
		if !strings.Contains(body, want) {
			t.Errorf("modal missing %q: %s", want, body)
		}
	}
}

func TestNewBillAndLogin(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	if err := r.NewBill(&buf, NewBillData{Form: NewBillForm{Type: "Transports"}, Error: "Montant invalide"}); err != nil {
		t.Fatal(err)
	}
	body := buf.String()
	if !strings.Contains(body, "<option selected>Transports</option>") || !strings.Contains(body, "Montant invalide") {
		t.Fatalf("unexpected new bill body: %s", body)
	}
	if !strings.Contains(body, `data-testid="icon-mail" class="active-icon"`) {
		t.Fatal("new bill page must highlight the mail icon")
	}

	buf.Reset()
	if err := r.Login(&buf, LoginData{Error: "Identifiants invalides"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Identifiants invalides") {
		t.Fatal("login must show its error")
	}
}
