// Package routes names the application pages.
package routes

const (
	Login     = "/"
	Bills     = "/employee/bills"
	NewBill   = "/employee/bill/new"
	Dashboard = "/admin/dashboard"
)

// Navigator moves the user to another page.
type Navigator func(route string)

var titles = map[string]string{
	Login:     "Billed - Connexion",
	Bills:     "Billed - Mes notes de frais",
	NewBill:   "Billed - Nouvelle note de frais",
	Dashboard: "Billed - Dashboard",
}

// Title returns the page title for route, or "Billed".
func Title(route string) string {
	if t, ok := titles[route]; ok {
		return t
	}
	return "Billed"
}

func IsKnown(route string) bool {
	_, ok := titles[route]
	return ok
}
