package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	ok := map[string]string{
		"12.34":  "12.34",
		"12,34":  "12.34",
		"12,345": "12.345",
		"0.01":   "0.01",
		".5":     "0.5",
		"7.":     "7",
		" 3 ":    "3",
	}
	for in, want := range ok {
		got, err := ParseDecimal(in)
		if err != nil {
			t.Fatalf("%q unexpected err: %v", in, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("%q => %s, want %s", in, got, want)
		}
	}

	bad := []string{"", "-1", "+1", "abc", "1.2.3", "1e3", ".", "1 000"}
	for _, in := range bad {
		if _, err := ParseDecimal(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	if _, err := ParseQuantity("0.01"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, in := range []string{"0", "0.009", "abc"} {
		if _, err := ParseQuantity(in); err != ErrInvalidQuantity {
			t.Fatalf("%q expected ErrInvalidQuantity, got %v", in, err)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
		yuan string
	}{
		{"30", "30.00", "¥30.00"},
		{"4.5", "4.50", "¥4.50"},
		{"1.005", "1.01", "¥1.01"},
		{"-2.1", "-2.10", "-¥2.10"},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := FormatMoney(d); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
		if got := FormatYuan(d); got != tt.yuan {
			t.Errorf("FormatYuan(%s) = %q, want %q", tt.in, got, tt.yuan)
		}
	}
}
