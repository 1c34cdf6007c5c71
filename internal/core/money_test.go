package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"348", 34800, false},
		{"12.5", 1250, false},
		{"12,50", 1250, false},
		{"12,50 €", 1250, false},
		{".5", 50, false},
		{"0.01", 1, false},
		{"1.005", 101, false},
		{"1.004", 100, false},
		{" 2.50 ", 250, false},
		{"-1", 0, true},
		{"+1", 0, true},
		{"0", 0, true},
		{"0.004", 0, true},
		{"1 000", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{".", 0, true},
		{"", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseDecimalToCents(%q) error = %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseDecimalToCents(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestFormatEuros(t *testing.T) {
	cases := map[int64]string{
		40000: "400 €",
		1250:  "12,50 €",
		1:     "0,01 €",
		-305:  "-3,05 €",
		0:     "0 €",
	}
	for in, want := range cases {
		if got := FormatEuros(in); got != want {
			t.Errorf("FormatEuros(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCentsFromEuros(t *testing.T) {
	cases := map[float64]int64{400: 40000, 12.5: 1250, 0.5: 50, -3.05: -305}
	for in, want := range cases {
		if got := CentsFromEuros(in); got != want {
			t.Errorf("CentsFromEuros(%v) = %d, want %d", in, got, want)
		}
	}
}
