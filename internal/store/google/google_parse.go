package google

import (
	"fmt"
	"strconv"
	"strings"

	"billed/internal/core"
)

// parseBills converts a values matrix (as returned by Sheets API) into bills.
// The first row must carry the column headers; columns are located by name
// so the sheet may reorder or add columns.
func parseBills(values [][]interface{}) ([]core.Bill, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	col := make(map[string]int, len(billColumns))
	var missing []string
	for _, name := range billColumns {
		idx := indexOf(headers, name)
		col[name] = idx
		if idx == -1 && (name == "ID" || name == "Date" || name == "Amount") {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected bills header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	out := make([]core.Bill, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		get := func(name string) string { return safeGet(row, col[name]) }

		id := get("ID")
		if id == "" {
			continue
		}
		cents, ok := parseEurosToCents(get("Amount"))
		if !ok {
			continue
		}
		pct, _ := strconv.Atoi(get("Pct"))
		out = append(out, core.Bill{
			ID:           id,
			Email:        get("Email"),
			Date:         get("Date"),
			Type:         get("Type"),
			Name:         get("Name"),
			Amount:       core.Money{Cents: cents},
			VAT:          get("VAT"),
			Pct:          pct,
			Commentary:   get("Commentary"),
			CommentAdmin: get("CommentAdmin"),
			FileURL:      get("FileURL"),
			FileName:     get("FileName"),
			Status:       core.Status(strings.ToLower(get("Status"))),
		})
	}
	return out, nil
}
