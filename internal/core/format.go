package core

import (
	"fmt"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// French short month names, capitalised and cut to three letters.
var shortMonths = [12]string{
	"Jan", "Fév", "Mar", "Avr", "Mai", "Jui",
	"Jui", "Aoû", "Sep", "Oct", "Nov", "Déc",
}

// ParseDate parses the stored ISO date of a bill.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(isoDate, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// FormatDate renders an ISO date as "D Mmm. YY", e.g. "2004-04-04" -> "4 Avr. 04".
func FormatDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s. %02d", t.Day(), shortMonths[t.Month()-1], t.Year()%100), nil
}

func FormatStatus(s Status) string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refusé"
	default:
		return string(s)
	}
}

// FormatBill maps a raw bill to its display form. The input is passed by
// value and never modified; only the date and status labels are derived.
func FormatBill(b Bill) (DisplayBill, error) {
	date, err := FormatDate(b.Date)
	if err != nil {
		return DisplayBill{}, err
	}
	return DisplayBill{
		Bill:        b,
		DisplayDate: date,
		StatusLabel: FormatStatus(b.Status),
		Formatted:   true,
	}, nil
}

// RawDisplay wraps a bill whose formatting failed so it can still be listed.
func RawDisplay(b Bill) DisplayBill {
	return DisplayBill{
		Bill:        b,
		DisplayDate: b.Date,
		StatusLabel: string(b.Status),
	}
}
