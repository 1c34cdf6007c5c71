// Package views renders the pages and partials of the application from the
// embedded templates.
package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"billed/internal/core"
	"billed/internal/routes"
	appweb "billed/web"
)

// BillsData is the input of the bills list view.
type BillsData struct {
	Data    []core.DisplayBill
	Loading bool
	Error   string
	User    core.User
	// Nav is the navigation sequence the loading shell asks the list for.
	Nav uint64
}

// NewBillForm echoes the submitted values back into the form.
type NewBillForm struct {
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

type NewBillData struct {
	Form         NewBillForm
	ExpenseTypes []string
	Error        string
	User         core.User
}

type LoginData struct {
	Email string
	Error string
}

type DashboardData struct {
	Data []core.DisplayBill
	User core.User
}

// ModalData describes the receipt modal.
type ModalData struct {
	URL        string
	ImageWidth int
	ModalWidth int
	Show       bool
}

// page wraps a view body with the layout fields.
type page struct {
	Title  string
	Active string
	Body   any
}

// Renderer executes the embedded templates.
type Renderer struct {
	templates *template.Template
}

var funcs = template.FuncMap{
	"euros": core.FormatEuros,
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	return NewFromFS(appweb.TemplatesFS, "templates/*.html")
}

// NewFromFS parses templates matching pattern from fsys.
func NewFromFS(fsys fs.FS, pattern string) (*Renderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Bills renders the full bills page. Data is sorted by date, most recent first.
func (r *Renderer) Bills(w io.Writer, data BillsData) error {
	data = sortedBills(data)
	return r.execute(w, "bills_page", page{Title: routes.Title(routes.Bills), Active: "bills", Body: data})
}

// BillsContent renders only the state dependent part of the bills page.
func (r *Renderer) BillsContent(w io.Writer, data BillsData) error {
	return r.execute(w, "bills_content", sortedBills(data))
}

func (r *Renderer) ReceiptModal(w io.Writer, data ModalData) error {
	return r.execute(w, "receipt_modal", data)
}

func (r *Renderer) NewBill(w io.Writer, data NewBillData) error {
	if data.ExpenseTypes == nil {
		data.ExpenseTypes = core.ExpenseTypes
	}
	return r.execute(w, "new_bill_page", page{Title: routes.Title(routes.NewBill), Active: "new-bill", Body: data})
}

func (r *Renderer) Login(w io.Writer, data LoginData) error {
	return r.execute(w, "login_page", page{Title: routes.Title(routes.Login), Body: data})
}

func (r *Renderer) Dashboard(w io.Writer, data DashboardData) error {
	data.Data = append([]core.DisplayBill(nil), data.Data...)
	core.SortByDateDesc(data.Data)
	return r.execute(w, "dashboard_page", page{Title: routes.Title(routes.Dashboard), Body: data})
}

func (r *Renderer) NotFound(w io.Writer) error {
	return r.execute(w, "not_found_page", page{Title: routes.Title("")})
}

// execute renders into a buffer first so a template error never leaves a
// half written response.
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func sortedBills(data BillsData) BillsData {
	data.Data = append([]core.DisplayBill(nil), data.Data...)
	core.SortByDateDesc(data.Data)
	return data
}
