package kasa

import (
	"encoding/json"
	"testing"
)

func TestMoneyString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{M(1234.5, "USD"), "$1,234.50"},
		{M(0, "USD"), "$0.00"},
		{M(-12.5, "USD"), "-$12.50"},
	}
	for _, tc := range tests {
		if got := tc.m.String(); got != tc.want {
			t.Errorf("M(%v).String() = %q, want %q", tc.m.value, got, tc.want)
		}
	}
}

func TestMoneySignedString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{M(12.5, "USD"), "+$12.50"},
		{M(-12.5, "USD"), "-$12.50"},
		{M(0, "USD"), "-"},
	}
	for _, tc := range tests {
		if got := tc.m.SignedString(); got != tc.want {
			t.Errorf("SignedString() = %q, want %q", got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := M(10, "EUR"), M(4, "EUR")
	if got := a.Add(b); !got.Equal(M(14, "EUR")) {
		t.Errorf("Add = %v, want 14 EUR", got)
	}
	if got := a.Sub(b); !got.Equal(M(6, "EUR")) {
		t.Errorf("Sub = %v, want 6 EUR", got)
	}
	// the empty currency is weak: it adopts the other operand's.
	if got := M(10, "").Add(b); got.Currency() != "EUR" {
		t.Errorf("weak currency Add = %q, want EUR", got.Currency())
	}
	if got := a.MulInt(3); !got.Equal(M(30, "EUR")) {
		t.Errorf("MulInt = %v, want 30 EUR", got)
	}
	if got := M(30, "EUR").DivInt(3); !got.Equal(M(10, "EUR")) {
		t.Errorf("DivInt = %v, want 10 EUR", got)
	}
}

func TestMoneyRatio(t *testing.T) {
	if got := M(42, "EUR").Ratio(M(100, "EUR")); got != 0.42 {
		t.Errorf("Ratio = %v, want 0.42", got)
	}
	if got := M(42, "EUR").Ratio(M(0, "EUR")); got != 0 {
		t.Errorf("Ratio by zero = %v, want 0", got)
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on EUR + USD")
		}
	}()
	M(1, "EUR").Add(M(1, "USD"))
}

func TestMoneyMarshalJSON(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{M(12.5, "EUR"), `{"currency":"EUR","amount":12.5}`},
		{M(12.5, ""), `{"amount":12.5}`},
	}
	for _, tc := range tests {
		got, err := json.Marshal(tc.m)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(got) != tc.want {
			t.Errorf("Marshal = %s, want %s", got, tc.want)
		}
	}
}
