package memory

import "billed/internal/core"

const receiptBase = "https://storage.billed.test/v0/b/billable/o/justificatifs%2F"

// Fixtures returns the demo bills of employee a@a, deliberately unsorted.
func Fixtures() []core.Bill {
	return []core.Bill{
		{
			ID:           "47qAXb6fIm2zOKkLzMro",
			Email:        "a@a",
			Type:         "Hôtel et logement",
			Name:         "encore",
			Date:         "2004-04-04",
			Amount:       core.Money{Cents: 40000},
			VAT:          "80",
			Pct:          20,
			Commentary:   "séminaire billed",
			CommentAdmin: "ok",
			FileURL:      receiptBase + "preview-facture-free-201801-pdf-1.jpg",
			FileName:     "preview-facture-free-201801-pdf-1.jpg",
			Status:       core.StatusPending,
		},
		{
			ID:           "BeKy5Mo4jkmdfPGYpTxZ",
			Email:        "a@a",
			Type:         "Transports",
			Name:         "test1",
			Date:         "2001-01-01",
			Amount:       core.Money{Cents: 10000},
			Pct:          20,
			Commentary:   "plop",
			CommentAdmin: "en fait non",
			FileURL:      receiptBase + "1592770761.jpeg",
			FileName:     "1592770761.jpeg",
			Status:       core.StatusRefused,
		},
		{
			ID:           "UIUZtnPQvnbFnB0ozvJh",
			Email:        "a@a",
			Type:         "Services en ligne",
			Name:         "test3",
			Date:         "2003-03-03",
			Amount:       core.Money{Cents: 30000},
			VAT:          "60",
			Pct:          20,
			CommentAdmin: "bon bah d'accord",
			FileURL:      receiptBase + "facture-client-php-exportee.png",
			FileName:     "facture-client-php-exportee.png",
			Status:       core.StatusAccepted,
		},
		{
			ID:           "qcCK3SzECmaZAGRrHjaC",
			Email:        "a@a",
			Type:         "Restaurants et bars",
			Name:         "test2",
			Date:         "2002-02-02",
			Amount:       core.Money{Cents: 20000},
			VAT:          "40",
			Pct:          20,
			Commentary:   "test2",
			CommentAdmin: "pas la bonne facture",
			FileURL:      receiptBase + "preview-facture-free-201801-pdf-1.jpg",
			FileName:     "preview-facture-free-201801-pdf-1.jpg",
			Status:       core.StatusRefused,
		},
	}
}
