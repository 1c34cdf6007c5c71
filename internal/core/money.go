package core

import (
	"fmt"
	"strconv"
	"strings"
)

// maxEuros keeps euros*100 inside int64.
const maxEuros = (1<<63 - 1) / 100

// ParseDecimalToCents reads a positive amount typed in the new bill form.
// "348", "12.5", "12,50" and "12,50 €" are accepted; a third decimal rounds
// half-up. Zero, signs, grouping and anything else yield ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "€"))
	whole, frac, _ := strings.Cut(strings.Replace(s, ",", ".", 1), ".")
	if whole == "" && frac == "" || !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}

	var euros int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || v > maxEuros {
			return 0, ErrInvalidAmount
		}
		euros = v
	}

	// Pad to three digits so the cents and the rounding digit are always there.
	frac += "000"
	cents := euros*100 + int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if frac[2] >= '5' {
		cents++
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Euros is the float form used by the Sheets and API payloads.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// CentsFromEuros converts a float amount from a remote source, rounding half
// away from zero.
func CentsFromEuros(v float64) int64 {
	if v < 0 {
		return -int64(-v*100 + 0.5)
	}
	return int64(v*100 + 0.5)
}

func (m Money) String() string {
	return FormatEuros(m.Cents)
}

// FormatEuros renders cents the way the bills table shows them: "400 €",
// "12,50 €".
func FormatEuros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	if cents%100 == 0 {
		return fmt.Sprintf("%s%d €", sign, cents/100)
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}
