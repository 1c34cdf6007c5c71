package core

import "sort"

// antiChrono reports whether date a sorts before date b: most recent first.
// Dates are compared as ISO text, which orders correctly for the fixed
// YYYY-MM-DD width.
func antiChrono(a, b string) bool {
	return a > b
}

// SortBillsByDateDesc orders bills from the most recent to the oldest.
// Bills sharing a date keep their relative order.
func SortBillsByDateDesc(bills []Bill) {
	sort.SliceStable(bills, func(i, j int) bool {
		return antiChrono(bills[i].Date, bills[j].Date)
	})
}

// SortByDateDesc orders display records by their raw date, most recent first.
func SortByDateDesc(bills []DisplayBill) {
	sort.SliceStable(bills, func(i, j int) bool {
		return antiChrono(bills[i].Date, bills[j].Date)
	})
}
