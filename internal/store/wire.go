package store

import "billed/internal/core"

// BillJSON is the wire shape of a bill, shared by the REST API and the
// JSON seed files. Amount is in euros.
type BillJSON struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Type         string  `json:"type"`
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	VAT          string  `json:"vat"`
	Pct          int     `json:"pct"`
	Commentary   string  `json:"commentary"`
	CommentAdmin string  `json:"commentAdmin"`
	FileURL      string  `json:"fileUrl"`
	FileName     string  `json:"fileName"`
	Status       string  `json:"status"`
}

func (j BillJSON) ToCore() core.Bill {
	return core.Bill{
		ID:           j.ID,
		Email:        j.Email,
		Type:         j.Type,
		Name:         j.Name,
		Date:         j.Date,
		Amount:       core.Money{Cents: core.CentsFromEuros(j.Amount)},
		VAT:          j.VAT,
		Pct:          j.Pct,
		Commentary:   j.Commentary,
		CommentAdmin: j.CommentAdmin,
		FileURL:      j.FileURL,
		FileName:     j.FileName,
		Status:       core.Status(j.Status),
	}
}

func FromCore(b core.Bill) BillJSON {
	return BillJSON{
		ID:           b.ID,
		Email:        b.Email,
		Type:         b.Type,
		Name:         b.Name,
		Date:         b.Date,
		Amount:       b.Amount.Euros(),
		VAT:          b.VAT,
		Pct:          b.Pct,
		Commentary:   b.Commentary,
		CommentAdmin: b.CommentAdmin,
		FileURL:      b.FileURL,
		FileName:     b.FileName,
		Status:       string(b.Status),
	}
}
